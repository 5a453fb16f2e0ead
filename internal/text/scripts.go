package text

import (
	"time"

	"github.com/DaanHessen/rabbithole/internal/engine"
)

// Option is one selectable answer in a scene.
type Option struct {
	ID     string
	Label  string
	Icon   string
	Detail string
	// Correct only matters in challenge scenes.
	Correct  bool
	Feedback string
	// UnlockAfter hides the option until the scene has been on screen this long.
	UnlockAfter time.Duration
}

// Agent is one opponent in the agents battle.
type Agent struct {
	Icon      string
	Attack    string
	Responses []Option
}

// Script is the static presentation of a scene.
type Script struct {
	Scene    engine.Scene
	Title    string
	Caption  string
	Lines    []string
	Options  []Option
	Agents   []Agent
	Victory  string
	Rabbit   engine.EasterEgg
	Glitch   engine.EasterEgg
	BlackCat bool
	// SecretInput lets the player type passphrases on this scene.
	SecretInput bool
	// AutoAdvance is how long an auto-advancing scene stays up. Zero waits for input.
	AutoAdvance time.Duration
}

// PurplePillDelay is how long scene2 waits before offering the third pill.
const PurplePillDelay = 30 * time.Second

// ShareText is what the epilogue offers to copy.
const ShareText = "I completed the Matrix Teaching Quest and got a promo code for the course!"

// GlitchFor is the hidden glitch placed on scene s.
func GlitchFor(s engine.Scene) engine.EasterEgg { return engine.EasterEgg("glitch_" + string(s)) }

var scripts = map[engine.Scene]Script{
	engine.SceneLoading: {
		Title: "REALITY.EXE",
		Lines: []string{
			"LOADING TEACHING_REALITY.EXE...",
			"ERROR 404: WORK_LIFE_BALANCE NOT FOUND",
			"DETECTING ANOMALY...",
			"TEACHER_BURNOUT_LEVEL: CRITICAL",
			"INCOMING MESSAGE...",
		},
		Caption:     "Press [ENTER] to skip",
		Rabbit:      engine.EggWhiteRabbitLoading,
		AutoAdvance: 6 * time.Second,
	},
	engine.SceneOne: {
		Title:   "23:47",
		Caption: "SYSTEM: Message detected from Unknown_User",
		Lines: []string{
			"Do you feel it? This endless loop...",
			"Lesson plans → Grading → Preparation → Plans again...",
			"Are you tired of living in this simulation?",
			"Follow the white rabbit 🐰",
		},
		Options: []Option{
			{ID: engine.ChoiceFollowRabbit, Label: "Follow the rabbit", Icon: "🐰"},
			{ID: engine.ChoiceCloseMessage, Label: "Close message", Icon: "❌"},
		},
		Rabbit:   engine.EggWhiteRabbitScene1,
		BlackCat: true,
	},
	engine.SceneOneLoop: {
		Title: "LOOP DETECTED",
		Lines: []string{
			"You chose to stay.",
			"But the Matrix won't let go that easily...",
		},
		BlackCat:    true,
		AutoAdvance: 4 * time.Second,
	},
	engine.SceneTwo: {
		Title: "THE GUIDE",
		Lines: []string{
			"Finally. You felt the glitch in the system.",
			"I'm your guide out of this reality. Do you know why you're here? Because you're asking the right questions:",
			"- Why do I spend 4 hours preparing one lesson?",
			"- Why are my students yawning when I try so hard?",
			"- Why are we in 2024 with methods from the 1990s?",
			"The choice is yours...",
		},
		Options: []Option{
			{ID: engine.ChoiceRedPill, Label: "Red pill", Icon: "🔴", Detail: "See the truth"},
			{ID: engine.ChoiceBluePill, Label: "Blue pill", Icon: "🔵", Detail: "Return to comfortable lies"},
			{ID: engine.ChoicePurplePill, Label: "Purple pill", Icon: "🟣", Detail: "What if...?", UnlockAfter: PurplePillDelay},
		},
		Rabbit: engine.EggWhiteRabbitScene2,
	},
	engine.SceneThreeA: {
		Title: "WELCOME TO REALITY",
		Lines: []string{
			"Welcome to reality.",
			"What you saw before was a program. The Matrix of Traditional Teaching.",
			"It feeds on your energy, time, passion for teaching.",
			"But there's another way. The Digital Teacher's Path.",
			"Ready for training?",
		},
		Rabbit:      engine.EggWhiteRabbitScene3A,
		AutoAdvance: 6 * time.Second,
	},
	engine.SceneChallenge1: {
		Title:   "PROMPT-FU",
		Caption: "Student: 14 years old · Level B1 · Mood: BORED.exe · Topic: Present Perfect",
		Lines: []string{
			"First skill - the art of prompting. It's like martial arts: the right move decides everything.",
			"Pick the prompt that will wake this student up.",
		},
		Options: []Option{
			{
				ID:       engine.ChoiceBasicPrompt,
				Label:    "Create an exercise on Present Perfect",
				Feedback: "Too generic. No context for the student.",
			},
			{
				ID:       engine.ChoiceBetterPrompt,
				Label:    "Make an interesting Present Perfect task for a teenager",
				Feedback: "Better, but still not specific enough.",
			},
			{
				ID:       engine.ChoicePerfectPrompt,
				Label:    "Create a detective story for a 14-year-old B1 student who loves mysteries, where they solve the case by using Present Perfect to describe what the suspects have done",
				Correct:  true,
				Feedback: "Excellent! You understand the power of context. Moving forward.",
			},
		},
		Rabbit: engine.EggWhiteRabbitChallenge1,
	},
	engine.SceneChallenge2: {
		Title:   "BATTLE WITH AGENTS",
		Caption: "⚠️ CAREFUL! AGENTS OF THE OLD SYSTEM ⚠️",
		Lines:   []string{"They will try to convince you to return."},
		Agents: []Agent{
			{
				Icon:   "🕴️",
				Attack: "AI is a fraud! A real teacher does everything themselves!",
				Responses: correct(
					"AI is a tool, like a calculator for a mathematician",
					"I remain the creative director, AI is my assistant",
					"More time for students, less for routine",
				),
			},
			{
				Icon:   "👔",
				Attack: "Parents won't understand! They want traditional methods!",
				Responses: correct(
					"Results speak for themselves - students progress faster",
					"AI helps personalize learning for each child",
					"Modern children deserve modern methods",
				),
			},
			{
				Icon:   "🤵",
				Attack: "What if AI replaces teachers?",
				Responses: correct(
					"AI cannot replace human empathy and motivation",
					"Teacher becomes a mentor, not an information transmitter",
					"AI empowers the teacher, doesn't replace them",
				),
			},
		},
		Victory: "🎉 AGENTS DEFEATED! 🎉 You successfully repelled the attacks of the Old System Agents! Ready for the final challenge?",
		Rabbit:  engine.EggWhiteRabbitChallenge2,
	},
	engine.SceneFinalChoice: {
		Title: "THE ARCHITECT",
		Lines: []string{
			"You've walked the path I walked two years ago.",
			"See this city? Each building is a teacher stuck in the Matrix. I was like them. 6 lessons a day, preparation until 2 AM, coffee by the liter. I thought - this is normal...",
			"Now I have 23 students instead of 15. I work 5 hours instead of 12. Students are happy. So am I.",
			"Are you ready to become the architect of your reality?",
		},
		Options: []Option{
			{ID: engine.ChoiceTheOne, Label: "THE ONE", Icon: "🎯", Detail: "Full immersion. 4 weeks intensive. Become a master."},
			{ID: engine.ChoiceChosen, Label: "CHOSEN", Icon: "🚀", Detail: "Support and mentorship. Grow gradually."},
			{ID: engine.ChoiceAwakened, Label: "AWAKENED", Icon: "🌱", Detail: "Basic knowledge. Start the journey."},
		},
		Caption:     "Every portal: -40% with MATRIX40",
		Rabbit:      engine.EggWhiteRabbitFinal,
		SecretInput: true,
	},
	engine.SceneEpilogue: {
		Title: "REALITY.EXE SUCCESSFULLY UPDATED",
		Lines: []string{
			"TEACHER_STATUS: EVOLVED ✓",
			"AI_INTEGRATION: READY ✓",
			"MATRIX_ESCAPE: SUCCESSFUL ✓",
		},
		Rabbit:      engine.EggWhiteRabbitEpilogue,
		SecretInput: true,
	},
}

func correct(labels ...string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{ID: engine.ChoiceAgentsBeaten, Label: l, Correct: true}
	}
	return out
}

// ScriptFor returns the script of s. Unknown scenes get the loading script.
func ScriptFor(s engine.Scene) Script {
	sc, ok := scripts[s]
	if !ok {
		s = engine.SceneLoading
		sc = scripts[s]
	}
	sc.Scene = s
	if sc.Glitch == "" && !engine.IsTerminal(s) {
		sc.Glitch = GlitchFor(s)
	}
	return sc
}

// VisibleOptions returns the options of sc unlocked after elapsed on screen.
func (sc Script) VisibleOptions(elapsed time.Duration) []Option {
	out := make([]Option, 0, len(sc.Options))
	for _, o := range sc.Options {
		if elapsed >= o.UnlockAfter {
			out = append(out, o)
		}
	}
	return out
}

// Option looks up an option by id.
func (sc Script) Option(id string) (Option, bool) {
	for _, o := range sc.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
