package text

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/rabbithole/internal/engine"
)

func TestEverySceneHasAScript(t *testing.T) {
	for _, s := range engine.AllScenes {
		sc := ScriptFor(s)
		assert.Equal(t, s, sc.Scene)
		assert.NotEmpty(t, sc.Title, "scene %s", s)
		assert.NotEmpty(t, sc.Lines, "scene %s", s)
	}
}

func TestUnknownSceneRendersLoading(t *testing.T) {
	sc := ScriptFor("scene99")
	assert.Equal(t, engine.SceneLoading, sc.Scene)
}

func TestAutoAdvancingScenesHaveATimer(t *testing.T) {
	for _, s := range engine.AllScenes {
		_, auto := engine.AutoAdvanceTarget(s)
		sc := ScriptFor(s)
		assert.Equal(t, auto, sc.AutoAdvance > 0, "scene %s", s)
	}
}

func TestGlitchesCoverEnoughScenes(t *testing.T) {
	seen := map[engine.EasterEgg]bool{}
	for _, s := range engine.AllScenes {
		if g := ScriptFor(s).Glitch; g != "" {
			assert.True(t, g.IsGlitch())
			seen[g] = true
		}
	}
	assert.GreaterOrEqual(t, len(seen), engine.GlitchHunterCount)
	assert.Empty(t, ScriptFor(engine.SceneEpilogue).Glitch)
}

func TestRabbitsArePlaced(t *testing.T) {
	rabbits := 0
	for _, s := range engine.AllScenes {
		if r := ScriptFor(s).Rabbit; r != "" {
			assert.True(t, r.IsWhiteRabbit())
			rabbits++
		}
	}
	assert.GreaterOrEqual(t, rabbits, engine.WhiteRabbitThreshold)
}

func TestPurplePillUnlocksLater(t *testing.T) {
	sc := ScriptFor(engine.SceneTwo)
	assert.Len(t, sc.VisibleOptions(0), 2)
	assert.Len(t, sc.VisibleOptions(PurplePillDelay-time.Second), 2)
	opts := sc.VisibleOptions(PurplePillDelay)
	require.Len(t, opts, 3)
	assert.Equal(t, engine.ChoicePurplePill, opts[2].ID)
}

func TestPromptChallengeHasOneCorrectAnswer(t *testing.T) {
	sc := ScriptFor(engine.SceneChallenge1)
	var correct []string
	for _, o := range sc.Options {
		assert.NotEmpty(t, o.Feedback)
		if o.Correct {
			correct = append(correct, o.ID)
		}
	}
	assert.Equal(t, []string{engine.ChoicePerfectPrompt}, correct)
}

func TestAgentsAcceptEveryResponse(t *testing.T) {
	sc := ScriptFor(engine.SceneChallenge2)
	require.Len(t, sc.Agents, 3)
	for _, a := range sc.Agents {
		require.Len(t, a.Responses, 3)
		for _, r := range a.Responses {
			assert.True(t, r.Correct)
		}
	}
}

func TestTemplateSceneMarkdown(t *testing.T) {
	n := NewTemplateNarrator()
	md, err := n.Scene(context.Background(), engine.SceneTwo, engine.Progress{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# THE GUIDE"))
	assert.Contains(t, md, "- Why do I spend 4 hours preparing one lesson?")
}

func TestEpilogueSummary(t *testing.T) {
	code := engine.FallbackPromoCode
	ms := int64(125000)
	p := engine.Progress{
		Achievements:      []engine.Achievement{engine.AchievementPerfectCode, "path_finder"},
		WhiteRabbitsFound: 3,
		CompletionTime:    &ms,
		PromoCode:         &code,
	}
	md, err := NewTemplateNarrator().Scene(context.Background(), engine.SceneEpilogue, p)
	require.NoError(t, err)
	assert.Contains(t, md, "**Perfect Code**")
	assert.Contains(t, md, "**Path finder**")
	assert.Contains(t, md, "White rabbits found: 3")
	assert.Contains(t, md, "Completion time: 2:05")
	assert.Contains(t, md, "`WEB_DEMO_2024`")
	assert.Contains(t, md, ShareText)
}

func TestTemplateOutcome(t *testing.T) {
	n := NewTemplateNarrator()
	ctx := context.Background()
	out, err := n.Outcome(ctx, engine.SceneChallenge1, engine.ChoiceBasicPrompt)
	require.NoError(t, err)
	assert.Equal(t, "❌ Too generic. No context for the student.", out)

	out, err = n.Outcome(ctx, engine.SceneChallenge1, engine.ChoicePerfectPrompt)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "✅ "))

	_, err = n.Outcome(ctx, engine.SceneOne, engine.ChoiceFollowRabbit)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestContentNarrator(t *testing.T) {
	ctx := context.Background()

	md, err := NewContentNarrator([]byte(`"**wake up**"`)).Scene(ctx, engine.SceneOne, engine.Progress{})
	require.NoError(t, err)
	assert.Equal(t, "**wake up**\n", md)

	n := NewContentNarrator([]byte(`{"scene":"scene2","title":"Knock","lines":["one","two"],"feedback":{"red_pill":"good"}}`))
	md, err = n.Scene(ctx, engine.SceneTwo, engine.Progress{})
	require.NoError(t, err)
	assert.Equal(t, "# Knock\n\none\n\ntwo\n", md)
	out, err := n.Outcome(ctx, engine.SceneTwo, engine.ChoiceRedPill)
	require.NoError(t, err)
	assert.Equal(t, "good", out)

	_, err = n.Scene(ctx, engine.SceneOne, engine.Progress{})
	assert.ErrorIs(t, err, ErrNoContent)
	_, err = NewContentNarrator(nil).Scene(ctx, engine.SceneOne, engine.Progress{})
	assert.ErrorIs(t, err, ErrNoContent)
	_, err = NewContentNarrator([]byte(`[1,2]`)).Scene(ctx, engine.SceneOne, engine.Progress{})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestWithFallbackNarrator(t *testing.T) {
	ctx := context.Background()
	n := WithFallback(NewContentNarrator(nil), NewTemplateNarrator())
	md, err := n.Scene(ctx, engine.SceneThreeA, engine.Progress{})
	require.NoError(t, err)
	assert.Contains(t, md, "WELCOME TO REALITY")

	n = WithFallback(nil, NewTemplateNarrator())
	out, err := n.Outcome(ctx, engine.SceneChallenge2, engine.ChoiceAgentsBeaten)
	require.NoError(t, err)
	assert.Contains(t, out, "AGENTS DEFEATED")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "0:00", FormatDuration(-5))
	assert.Equal(t, "4:59", FormatDuration(299999))
	assert.Equal(t, "12:03", FormatDuration(723000))
}
