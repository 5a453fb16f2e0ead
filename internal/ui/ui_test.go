package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/store"
)

type recordingTracker struct {
	pages  []string
	scenes []engine.Scene
}

func (r *recordingTracker) PageView(page string) { r.pages = append(r.pages, page) }
func (r *recordingTracker) SceneTime(s engine.Scene, _ time.Duration) {
	r.scenes = append(r.scenes, s)
}

type harness struct {
	engine  *engine.Engine
	clock   *engine.ManualClock
	tracker *recordingTracker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	clock := engine.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	qs := store.NewQuestStore(store.NewMemoryKV(), "test", zap.NewNop())
	e, err := engine.New(ctx, "user_test", qs, engine.WithClock(clock))
	require.NoError(t, err)
	e.StartQuest(ctx)
	return &harness{engine: e, clock: clock, tracker: &recordingTracker{}}
}

func (h *harness) model() model {
	return initialModel(context.Background(), h.engine, nil, h.tracker, h.clock, "matrix")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys through Update and runs any resolution command synchronously.
func press(m model, keys ...string) model {
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(model)
		if cmd == nil {
			continue
		}
		if msg, ok := cmd().(resolvedMsg); ok {
			next, _ = m.Update(msg)
			m = next.(model)
		}
	}
	return m
}

func TestFullRunWithoutBackend(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	require.Equal(t, engine.SceneLoading, m.scene)

	m = press(m, "enter")
	assert.Equal(t, engine.SceneOne, m.scene)
	m = press(m, "1")
	assert.Equal(t, engine.SceneTwo, m.scene)
	m = press(m, "1")
	assert.Equal(t, engine.SceneThreeA, m.scene)
	m = press(m, "enter")
	assert.Equal(t, engine.SceneChallenge1, m.scene)

	m = press(m, "1")
	assert.Equal(t, engine.SceneChallenge1, m.scene)
	assert.Equal(t, "❌ Too generic. No context for the student.", m.feedback)

	m = press(m, "3")
	assert.Equal(t, engine.SceneChallenge2, m.scene)
	m = press(m, "2", "1")
	assert.Equal(t, engine.SceneChallenge2, m.scene)
	assert.Equal(t, 2, m.agent)
	m = press(m, "3")
	assert.Equal(t, engine.SceneFinalChoice, m.scene)
	assert.Contains(t, m.status, "AGENTS DEFEATED")

	h.clock.Advance(2 * time.Minute)
	m = press(m, "1")
	assert.Equal(t, engine.SceneEpilogue, m.scene)

	p := h.engine.Progress()
	assert.True(t, p.QuestCompleted)
	require.NotNil(t, p.PromoCode)
	assert.Equal(t, engine.FallbackPromoCode, *p.PromoCode)
	assert.Contains(t, p.Achievements, engine.AchievementPerfectCode)
	assert.Contains(t, p.Achievements, engine.AchievementSpeedRunner)
	assert.Empty(t, m.options())
}

func TestPurplePillAppearsAfterWaiting(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter", "1")
	require.Equal(t, engine.SceneTwo, m.scene)
	assert.Len(t, m.options(), 2)

	m = press(m, "3")
	assert.Equal(t, engine.SceneTwo, m.scene)

	h.clock.Advance(30 * time.Second)
	assert.Len(t, m.options(), 3)
	m = press(m, "3")
	assert.Equal(t, engine.SceneThreeA, m.scene)
	assert.Equal(t, engine.ChoicePurplePill, h.engine.State().Choices[engine.SceneTwo])
}

func TestBusyModelRejectsChoices(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter")
	m.busy = true
	next, cmd := m.Update(key("1"))
	m = next.(model)
	assert.Nil(t, cmd)
	assert.Equal(t, "Processing...", m.status)
	assert.Equal(t, engine.SceneOne, h.engine.Progress().CurrentScene)
}

func TestRabbitCountsOncePerVisit(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "r", "r")
	assert.Equal(t, 1, h.engine.Progress().WhiteRabbitsFound)
	assert.Contains(t, m.status, "white rabbit")

	m = press(m, "enter", "r")
	assert.Equal(t, 2, h.engine.Progress().WhiteRabbitsFound)
}

func TestBlackCatTwiceGrantsDejaVu(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter", "c")
	assert.NotContains(t, h.engine.Progress().Achievements, engine.AchievementDejaVu)
	m = press(m, "c", "c")
	p := h.engine.Progress()
	assert.Contains(t, p.Achievements, engine.AchievementDejaVu)
	assert.Contains(t, p.EasterEggsFound, engine.EggBlackCatDoubleClick)
	assert.Contains(t, m.status, "Deja Vu")
}

func TestGlitchOnlyCaughtWhileVisible(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "g")
	assert.Empty(t, h.engine.Progress().EasterEggsFound)

	h.clock.Advance(glitchDelay)
	m = press(m, "g")
	assert.Equal(t, []engine.EasterEgg{"glitch_loading"}, h.engine.Progress().EasterEggsFound)
	assert.False(t, m.glitchVisible())
}

func TestSecretCodeOnFinalChoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e := h.engine
	e.AutoAdvance(ctx)
	_, err := e.MakeChoice(ctx, engine.SceneOne, engine.ChoiceFollowRabbit, "")
	require.NoError(t, err)
	_, err = e.MakeChoice(ctx, engine.SceneTwo, engine.ChoiceRedPill, "")
	require.NoError(t, err)
	e.AutoAdvance(ctx)
	_, err = e.CompleteChallenge(ctx, engine.SceneChallenge1, engine.ChoicePerfectPrompt, true)
	require.NoError(t, err)
	_, err = e.CompleteChallenge(ctx, engine.SceneChallenge2, engine.ChoiceAgentsBeaten, true)
	require.NoError(t, err)

	m := h.model()
	require.Equal(t, engine.SceneFinalChoice, m.scene)
	m = press(m, "/", "2", "3", "1", "9", "enter")
	assert.False(t, m.inputMode)
	assert.Contains(t, e.Progress().Achievements, engine.AchievementCodeBreaker)

	m = press(m, "/", "q", "esc")
	assert.False(t, m.inputMode)
	assert.Equal(t, engine.SceneFinalChoice, m.scene)
}

func TestSecretInputIgnoredElsewhere(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter", "/")
	assert.False(t, m.inputMode)
}

func TestAutoAdvanceOnTick(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	next, cmd := m.Update(tickMsg(h.clock.Now()))
	m = next.(model)
	assert.NotNil(t, cmd)
	assert.Equal(t, engine.SceneLoading, m.scene)

	h.clock.Advance(6 * time.Second)
	next, _ = m.Update(tickMsg(h.clock.Now()))
	m = next.(model)
	assert.Equal(t, engine.SceneOne, m.scene)
}

func TestTrackerSeesScenes(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter", "a")
	assert.Equal(t, []string{"loading", "scene1", viewAchievements}, h.tracker.pages)
	assert.Equal(t, []engine.Scene{engine.SceneLoading}, h.tracker.scenes)
	assert.Equal(t, viewAchievements, m.view)
	m = press(m, "esc")
	assert.Equal(t, viewScene, m.view)
}

func TestViewListsOptions(t *testing.T) {
	h := newHarness(t)
	m := press(h.model(), "enter")
	v := m.View()
	assert.Contains(t, v, "Follow the rabbit")
	assert.Contains(t, v, "PROGRESS")

	m = press(m, "?")
	assert.Contains(t, m.View(), "HOW TO PLAY")
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model().Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestThemeCycle(t *testing.T) {
	assert.Equal(t, "red_pill", nextThemeName("matrix", 1))
	assert.Equal(t, "blue_pill", nextThemeName("red_pill", 1))
	assert.Equal(t, "red_pill", nextThemeName("blue_pill", -1))
	assert.Equal(t, palettes[defaultTheme], paletteFor("nope"))

	h := newHarness(t)
	m := press(h.model(), "t")
	assert.Equal(t, "red_pill", m.theme)
}
