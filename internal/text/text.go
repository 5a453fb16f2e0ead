package text

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DaanHessen/rabbithole/internal/engine"
)

// ErrNoContent is returned by narrators that have nothing to say about a scene.
var ErrNoContent = errors.New("text: no content for scene")

// Narrator renders scenes and choice outcomes as markdown.
type Narrator interface {
	Scene(ctx context.Context, scene engine.Scene, p engine.Progress) (string, error)
	Outcome(ctx context.Context, scene engine.Scene, optionID string) (string, error)
}

// templateNarrator is the deterministic offline narrator built from the scene scripts.
type templateNarrator struct{}

func NewTemplateNarrator() Narrator { return templateNarrator{} }

func (templateNarrator) Scene(_ context.Context, scene engine.Scene, p engine.Progress) (string, error) {
	sc := ScriptFor(scene)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sc.Title)
	if sc.Caption != "" {
		fmt.Fprintf(&b, "_%s_\n\n", sc.Caption)
	}
	for _, l := range sc.Lines {
		if strings.HasPrefix(l, "- ") {
			b.WriteString(l + "\n")
			continue
		}
		b.WriteString(l + "\n\n")
	}
	if engine.IsTerminal(sc.Scene) {
		writeSummary(&b, p)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func (templateNarrator) Outcome(_ context.Context, scene engine.Scene, optionID string) (string, error) {
	sc := ScriptFor(scene)
	if o, ok := sc.Option(optionID); ok && o.Feedback != "" {
		if o.Correct {
			return "✅ " + o.Feedback, nil
		}
		return "❌ " + o.Feedback, nil
	}
	if scene == engine.SceneChallenge2 && optionID == engine.ChoiceAgentsBeaten {
		return sc.Victory, nil
	}
	return "", ErrNoContent
}

func writeSummary(b *strings.Builder, p engine.Progress) {
	b.WriteString("## ACHIEVEMENTS\n\n")
	if len(p.Achievements) == 0 {
		b.WriteString("(none yet)\n")
	}
	for _, id := range p.Achievements {
		info := engine.Describe(id)
		if info.Description != "" {
			fmt.Fprintf(b, "- %s **%s**: %s\n", info.Icon, info.Name, info.Description)
		} else {
			fmt.Fprintf(b, "- %s **%s**\n", info.Icon, info.Name)
		}
	}
	fmt.Fprintf(b, "\nWhite rabbits found: %d\n\n", p.WhiteRabbitsFound)
	if p.CompletionTime != nil {
		fmt.Fprintf(b, "Completion time: %s\n\n", FormatDuration(*p.CompletionTime))
	}
	if p.PromoCode != nil && *p.PromoCode != "" {
		fmt.Fprintf(b, "## YOUR PROMO CODE\n\n`%s`\n\n", *p.PromoCode)
	}
	b.WriteString("> " + ShareText + "\n")
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// sceneContent is the shape of backend supplied scene content.
type sceneContent struct {
	Scene    string            `json:"scene"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Lines    []string          `json:"lines"`
	Feedback map[string]string `json:"feedback"`
}

// contentNarrator renders the opaque content a backend attached to a transition.
type contentNarrator struct {
	c sceneContent
}

// NewContentNarrator decodes backend content. Raw JSON strings are taken as
// markdown; objects may carry a title, text, lines and per-option feedback.
// Anything else yields a narrator that always reports ErrNoContent.
func NewContentNarrator(raw []byte) Narrator {
	n := &contentNarrator{}
	if len(raw) == 0 {
		return n
	}
	var md string
	if err := json.Unmarshal(raw, &md); err == nil {
		n.c.Text = md
		return n
	}
	_ = json.Unmarshal(raw, &n.c)
	return n
}

func (n *contentNarrator) matches(scene engine.Scene) bool {
	return n.c.Scene == "" || engine.Scene(n.c.Scene) == scene
}

func (n *contentNarrator) Scene(_ context.Context, scene engine.Scene, _ engine.Progress) (string, error) {
	if !n.matches(scene) || (n.c.Text == "" && len(n.c.Lines) == 0) {
		return "", ErrNoContent
	}
	var b strings.Builder
	if n.c.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", n.c.Title)
	}
	if n.c.Text != "" {
		b.WriteString(strings.TrimSpace(n.c.Text) + "\n\n")
	}
	for _, l := range n.c.Lines {
		b.WriteString(l + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func (n *contentNarrator) Outcome(_ context.Context, scene engine.Scene, optionID string) (string, error) {
	if !n.matches(scene) {
		return "", ErrNoContent
	}
	if f, ok := n.c.Feedback[optionID]; ok && f != "" {
		return f, nil
	}
	return "", ErrNoContent
}

// WithFallback returns a narrator that prefers primary and falls back to backup on error.
func WithFallback(primary, fallback Narrator) Narrator { return &fallbackNarrator{p: primary, f: fallback} }

type fallbackNarrator struct{ p, f Narrator }

func (n *fallbackNarrator) Scene(ctx context.Context, scene engine.Scene, p engine.Progress) (string, error) {
	if n.p == nil {
		return n.f.Scene(ctx, scene, p)
	}
	if s, err := n.p.Scene(ctx, scene, p); err == nil {
		return s, nil
	}
	return n.f.Scene(ctx, scene, p)
}

func (n *fallbackNarrator) Outcome(ctx context.Context, scene engine.Scene, optionID string) (string, error) {
	if n.p == nil {
		return n.f.Outcome(ctx, scene, optionID)
	}
	if s, err := n.p.Outcome(ctx, scene, optionID); err == nil {
		return s, nil
	}
	return n.f.Outcome(ctx, scene, optionID)
}
