package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/text"
)

const (
	viewScene        = "scene"
	viewAchievements = "achievements"
	viewHelp         = "help"
)

// A glitch flickers into view glitchDelay after a scene opens and then for
// glitchWindow out of every glitchPeriod.
const (
	glitchDelay  = 3 * time.Second
	glitchWindow = 2 * time.Second
	glitchPeriod = 11 * time.Second
)

// Tracker receives presentation analytics. remote.Tracker implements it.
type Tracker interface {
	PageView(page string)
	SceneTime(scene engine.Scene, spent time.Duration)
}

type nopTracker struct{}

func (nopTracker) PageView(string) {}
func (nopTracker) SceneTime(engine.Scene, time.Duration) {}

type tickMsg time.Time

// resolvedMsg carries the outcome of a choice resolved off the update loop.
type resolvedMsg struct {
	from     engine.Scene
	res      engine.TransitionResult
	err      error
	feedback string
}

type model struct {
	ctx      context.Context
	quest    engine.Quest
	narrator text.Narrator
	tracker  Tracker
	clock    engine.Clock

	theme  string
	styles styles
	view   string

	scene         engine.Scene
	script        text.Script
	content       []byte
	entered       time.Time
	sceneRendered string

	agent       int
	feedback    string
	status      string
	busy        bool
	catClicks   int
	rabbitFound bool
	glitchFound bool
	input       string
	inputMode   bool
	known       map[engine.Achievement]bool

	width        int
	height       int
	scrollOffset int
	maxScroll    int
}

func initialModel(ctx context.Context, quest engine.Quest, narrator text.Narrator, tracker Tracker, clock engine.Clock, theme string) model {
	if narrator == nil {
		narrator = text.NewTemplateNarrator()
	}
	if tracker == nil {
		tracker = nopTracker{}
	}
	if clock == nil {
		clock = engine.SystemClock()
	}
	if _, ok := palettes[theme]; !ok {
		theme = defaultTheme
	}
	m := model{
		ctx:      ctx,
		quest:    quest,
		narrator: narrator,
		tracker:  tracker,
		clock:    clock,
		theme:    theme,
		styles:   newStyles(paletteFor(theme)),
		view:     viewScene,
		known:    map[engine.Achievement]bool{},
	}
	p := quest.Progress()
	for _, a := range p.Achievements {
		m.known[a] = true
	}
	m.enterScene(p.CurrentScene, nil)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) elapsed() time.Duration { return m.clock.Now().Sub(m.entered) }

// leave reports the time spent on the current scene.
func (m *model) leave() {
	if m.scene == "" || m.entered.IsZero() {
		return
	}
	m.tracker.SceneTime(m.scene, m.elapsed())
}

// enterScene switches the presentation to s. content is whatever the backend
// attached to the transition.
func (m *model) enterScene(s engine.Scene, content []byte) {
	m.leave()
	m.scene = s
	m.script = text.ScriptFor(s)
	m.content = content
	m.entered = m.clock.Now()
	m.agent = 0
	m.feedback = ""
	m.catClicks = 0
	m.rabbitFound = false
	m.glitchFound = false
	m.input = ""
	m.inputMode = false
	m.scrollOffset = 0
	m.tracker.PageView(string(s))
	if engine.IsTerminal(s) && !m.quest.Progress().QuestCompleted {
		m.quest.CompleteQuest(m.ctx, "")
		m.announce()
	}
	m.renderScene()
}

func (m *model) sceneNarrator() text.Narrator {
	return text.WithFallback(text.NewContentNarrator(m.content), m.narrator)
}

func (m *model) renderScene() {
	md, err := m.sceneNarrator().Scene(m.ctx, m.scene, m.quest.Progress())
	if err != nil {
		md = "# " + m.script.Title
	}
	wrap := m.mainWidth() - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	if err != nil {
		m.sceneRendered = md
		return
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		m.sceneRendered = md
		return
	}
	m.sceneRendered = rendered
}

func (m *model) outcome(optionID string) string {
	out, err := m.sceneNarrator().Outcome(m.ctx, m.scene, optionID)
	if err != nil {
		return ""
	}
	return out
}

// announce reports achievements that appeared since the last call.
func (m *model) announce() {
	var fresh []string
	for _, a := range m.quest.Progress().Achievements {
		if m.known[a] {
			continue
		}
		m.known[a] = true
		info := engine.Describe(a)
		fresh = append(fresh, info.Icon+" "+info.Name)
	}
	if len(fresh) > 0 {
		m.status = "Achievement unlocked: " + strings.Join(fresh, ", ")
	}
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd { return tick() }

func (m model) View() string {
	switch m.view {
	case viewAchievements:
		return m.renderAchievements()
	case viewHelp:
		return m.renderHelp()
	}
	return m.renderSceneLayout()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderScene()
		return m, nil
	case tickMsg:
		if m.script.AutoAdvance > 0 && !m.busy && m.elapsed() >= m.script.AutoAdvance {
			m.autoAdvance()
		}
		return m, tick()
	case resolvedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Signal lost: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		if msg.res.Next != msg.from {
			m.enterScene(msg.res.Next, msg.res.Content)
			if msg.feedback != "" {
				m.status = msg.feedback
			}
		} else if msg.feedback != "" {
			m.feedback = msg.feedback
		}
		m.announce()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m model) handleKey(k string) (tea.Model, tea.Cmd) {
	if k == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputMode {
		switch k {
		case "enter":
			m.submitInput()
		case "esc":
			m.inputMode = false
			m.input = ""
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			if isRuneInput(k) {
				m.input += k
			}
		}
		return m, nil
	}
	if m.view != viewScene {
		switch k {
		case "esc", "q", "a", "?":
			m.view = viewScene
		}
		return m, nil
	}
	switch k {
	case "q":
		return m, tea.Quit
	case "a":
		m.view = viewAchievements
		m.tracker.PageView(viewAchievements)
	case "?":
		m.view = viewHelp
	case "t":
		m.theme = nextThemeName(m.theme, 1)
		m.styles = newStyles(paletteFor(m.theme))
	case "enter":
		if m.script.AutoAdvance > 0 && !m.busy {
			m.autoAdvance()
		}
	case "/":
		if m.script.SecretInput {
			m.inputMode = true
		}
	case "r":
		m.catchRabbit()
	case "c":
		m.strokeCat()
	case "g":
		m.catchGlitch()
	case "pgdown", "ctrl+f":
		m.scrollOffset += 8
	case "pgup", "ctrl+b":
		m.scrollOffset -= 8
	case "home":
		m.scrollOffset = 0
	case "end":
		m.scrollOffset = m.maxScroll
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			cmd := m.choose(int(k[0] - '1'))
			return m, cmd
		}
	}
	return m, nil
}

func (m *model) autoAdvance() {
	if next, ok := m.quest.AutoAdvance(m.ctx); ok {
		m.enterScene(next, nil)
		m.announce()
	}
}

// options lists what the number keys currently select.
func (m *model) options() []text.Option {
	if m.scene == engine.SceneChallenge2 {
		if m.agent >= len(m.script.Agents) {
			return nil
		}
		return m.script.Agents[m.agent].Responses
	}
	return m.script.VisibleOptions(m.elapsed())
}

func (m *model) choose(idx int) tea.Cmd {
	if m.busy {
		m.status = "Processing..."
		return nil
	}
	opts := m.options()
	if idx < 0 || idx >= len(opts) {
		return nil
	}
	o := opts[idx]
	q, ctx, scene := m.quest, m.ctx, m.scene
	switch scene {
	case engine.SceneChallenge1:
		fb := m.outcome(o.ID)
		if !o.Correct {
			_, _ = q.CompleteChallenge(ctx, scene, o.ID, false)
			m.feedback = fb
			return nil
		}
		return m.resolve(func() (engine.TransitionResult, error) {
			return q.CompleteChallenge(ctx, scene, o.ID, true)
		}, fb)
	case engine.SceneChallenge2:
		m.agent++
		if m.agent < len(m.script.Agents) {
			m.feedback = "Agent repelled. Another one approaches..."
			return nil
		}
		return m.resolve(func() (engine.TransitionResult, error) {
			return q.CompleteChallenge(ctx, scene, engine.ChoiceAgentsBeaten, true)
		}, m.outcome(engine.ChoiceAgentsBeaten))
	}
	return m.resolve(func() (engine.TransitionResult, error) {
		return q.MakeChoice(ctx, scene, o.ID, o.Label)
	}, m.outcome(o.ID))
}

func (m *model) resolve(fn func() (engine.TransitionResult, error), feedback string) tea.Cmd {
	m.busy = true
	from := m.scene
	return func() tea.Msg {
		res, err := fn()
		return resolvedMsg{from: from, res: res, err: err, feedback: feedback}
	}
}

func (m *model) catchRabbit() {
	if m.script.Rabbit == "" || m.rabbitFound {
		return
	}
	m.rabbitFound = true
	m.quest.TriggerEasterEgg(m.ctx, m.script.Rabbit)
	m.status = "🐰 You found a white rabbit!"
	m.announce()
}

func (m *model) strokeCat() {
	if !m.script.BlackCat || m.catClicks >= 2 {
		return
	}
	m.catClicks++
	if m.catClicks == 1 {
		m.quest.TriggerEasterEgg(m.ctx, engine.EggBlackCat)
		m.status = "🐈‍⬛ A black cat walks past..."
	} else {
		m.quest.TriggerEasterEgg(m.ctx, engine.EggBlackCatDoubleClick)
		m.status = "🐈‍⬛ A black cat walks past... again."
	}
	m.announce()
}

func (m *model) glitchVisible() bool {
	if m.script.Glitch == "" || m.glitchFound {
		return false
	}
	e := m.elapsed()
	return e >= glitchDelay && (e-glitchDelay)%glitchPeriod < glitchWindow
}

func (m *model) catchGlitch() {
	if !m.glitchVisible() {
		return
	}
	m.glitchFound = true
	m.quest.TriggerEasterEgg(m.ctx, m.script.Glitch)
	m.status = "🔍 Glitch captured."
	m.announce()
}

func (m *model) submitInput() {
	in := m.input
	m.input = ""
	m.inputMode = false
	egg, ok := engine.MatchSecretInput(in)
	if !ok {
		m.status = "Nothing happens."
		return
	}
	m.quest.TriggerEasterEgg(m.ctx, egg)
	switch egg {
	case engine.EggNoSpoon:
		m.status = "🥄 There is no spoon."
	default:
		m.status = "🔓 Access granted."
	}
	m.announce()
}

// Layout rendering -----------------------------------------------------------
func (m *model) mainWidth() int {
	w := m.width
	if w <= 0 {
		w = 100
	}
	return w - m.sidebarWidth() - 1
}

func (m *model) sidebarWidth() int {
	if m.width > 0 && m.width < 90 {
		return 24
	}
	return 30
}

func (m *model) renderSceneLayout() string {
	top := m.renderTopBar()
	lines := strings.Split(m.buildMainScene(), "\n")
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
	if m.scrollOffset > len(lines) {
		m.scrollOffset = len(lines)
	}
	viewLines := lines
	availHeight := m.height - 4
	if availHeight > 5 && len(lines) > availHeight {
		if m.scrollOffset+availHeight > len(lines) {
			m.scrollOffset = len(lines) - availHeight
		}
		viewLines = lines[m.scrollOffset : m.scrollOffset+availHeight]
		m.maxScroll = len(lines) - availHeight
	}
	main := lipgloss.NewStyle().Width(m.mainWidth()).Render(strings.Join(viewLines, "\n"))
	side := m.styles.sidebar.Width(m.sidebarWidth()).Render(m.buildSidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, side)
	return lipgloss.JoinVertical(lipgloss.Left, top, body, m.renderBottomBar())
}

func (m *model) renderTopBar() string {
	left := "FOLLOW THE WHITE RABBIT • " + strings.ToUpper(string(m.scene))
	right := m.quest.UserID()
	w := m.width
	if w <= 0 {
		w = 100
	}
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.title.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *model) renderBottomBar() string {
	keys := "[1-9] choose  [R] rabbit  [G] glitch  [A] achievements  [T] theme  [?] help  [Q] quit"
	if m.script.AutoAdvance > 0 {
		keys = "[Enter] skip  " + keys
	}
	if m.script.SecretInput {
		keys = "[/] type  " + keys
	}
	line := m.status
	if m.inputMode {
		line = "> " + m.input + "█"
	}
	return m.styles.muted.Render(keys + "\n" + line)
}

func (m *model) buildMainScene() string {
	var b strings.Builder
	b.WriteString(m.sceneRendered)
	if m.scene == engine.SceneChallenge2 && m.agent < len(m.script.Agents) {
		a := m.script.Agents[m.agent]
		b.WriteString(m.styles.bad.Render(fmt.Sprintf("%s AGENT %d/%d: \"%s\"", a.Icon, m.agent+1, len(m.script.Agents), a.Attack)))
		b.WriteString("\n\n")
	}
	for i, o := range m.options() {
		label := o.Label
		if o.Icon != "" {
			label = o.Icon + " " + label
		}
		b.WriteString(m.styles.option.Render(fmt.Sprintf("[%d] %s", i+1, label)))
		b.WriteString("\n")
		if o.Detail != "" {
			b.WriteString(m.styles.muted.Render("    "+o.Detail) + "\n")
		}
	}
	if m.feedback != "" {
		style := m.styles.text
		switch {
		case strings.HasPrefix(m.feedback, "✅"):
			style = m.styles.good
		case strings.HasPrefix(m.feedback, "❌"):
			style = m.styles.bad
		}
		b.WriteString("\n" + style.Render(m.feedback) + "\n")
	}
	var hints []string
	if m.script.Rabbit != "" && !m.rabbitFound {
		hints = append(hints, "🐇")
	}
	if m.script.BlackCat && m.catClicks < 2 {
		hints = append(hints, "🐈‍⬛")
	}
	if m.glitchVisible() {
		hints = append(hints, m.styles.glitch.Render("▓▒░ GL1TCH ░▒▓"))
	}
	if len(hints) > 0 {
		b.WriteString("\n" + strings.Join(hints, "  ") + "\n")
	}
	return b.String()
}

func (m *model) buildSidebar() string {
	p := m.quest.Progress()
	var b strings.Builder
	b.WriteString("PROGRESS\n")
	b.WriteString(fmt.Sprintf("Scene %s\n", p.CurrentScene))
	b.WriteString(fmt.Sprintf("Choices %d\n", p.ChoicesMade))
	b.WriteString(fmt.Sprintf("Rabbits %d/%d\n", p.WhiteRabbitsFound, engine.WhiteRabbitThreshold))
	b.WriteString(fmt.Sprintf("Eggs %d\n", len(p.EasterEggsFound)))
	if p.PerfectRun {
		b.WriteString("Perfect run ✓\n")
	}
	if p.CompletionTime != nil {
		b.WriteString("Time " + text.FormatDuration(*p.CompletionTime) + "\n")
	}
	b.WriteString("\nACHIEVEMENTS\n")
	if len(p.Achievements) == 0 {
		b.WriteString("(none)\n")
	}
	for _, a := range p.Achievements {
		info := engine.Describe(a)
		b.WriteString(info.Icon + " " + info.Name + "\n")
	}
	return b.String()
}

func (m *model) renderAchievements() string {
	p := m.quest.Progress()
	var b strings.Builder
	b.WriteString(m.styles.title.Render("ACHIEVEMENTS") + "\n\n")
	for _, id := range engine.ListAchievements() {
		info := engine.Describe(id)
		mark := "  "
		if contains(p.Achievements, id) {
			mark = "✓ "
		}
		b.WriteString(fmt.Sprintf("%s%s %-24s %s\n", mark, info.Icon, info.Name, info.Description))
	}
	for _, id := range p.Achievements {
		if id.Validate() {
			continue
		}
		info := engine.Describe(id)
		b.WriteString(fmt.Sprintf("✓ %s %s\n", info.Icon, info.Name))
	}
	b.WriteString("\nEsc to return")
	return b.String()
}

func (m *model) renderHelp() string {
	return "HOW TO PLAY\n\n" +
		"Read each scene and answer with the number keys. Some answers only appear if you wait.\n" +
		"White rabbits hide in most scenes: press R when you see one. Glitches flicker in and out: press G while they are visible.\n" +
		"Some scenes accept typed passphrases: press / to type, Enter to send.\n\n" +
		"Controls: 1-9 choose | Enter skip | R rabbit | C cat | G glitch | A achievements | T theme | Q quit.\n\nEsc returns."
}

func contains(list []engine.Achievement, v engine.Achievement) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func isRuneInput(s string) bool {
	runes := []rune(s)
	return len(runes) == 1 && runes[0] >= 32 && runes[0] < 127
}
