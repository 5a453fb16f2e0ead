package engine

import "strings"

// String backed enums so persisted snapshots and backend payloads stay readable.

type Scene string
type Achievement string
type EasterEgg string

const (
	SceneLoading     Scene = "loading"
	SceneOne         Scene = "scene1"
	SceneOneLoop     Scene = "scene1_loop"
	SceneTwo         Scene = "scene2"
	SceneThreeA      Scene = "scene3a"
	SceneChallenge1  Scene = "challenge1"
	SceneChallenge2  Scene = "challenge2"
	SceneFinalChoice Scene = "final_choice"
	SceneEpilogue    Scene = "epilogue"
)

var AllScenes = []Scene{SceneLoading, SceneOne, SceneOneLoop, SceneTwo, SceneThreeA, SceneChallenge1, SceneChallenge2, SceneFinalChoice, SceneEpilogue}

// Choice identifiers the scripted scenes emit.
const (
	ChoiceFollowRabbit  = "follow_rabbit"
	ChoiceCloseMessage  = "close_message"
	ChoiceRedPill       = "red_pill"
	ChoiceBluePill      = "blue_pill"
	ChoicePurplePill    = "purple_pill"
	ChoiceBasicPrompt   = "basic_prompt"
	ChoiceBetterPrompt  = "better_prompt"
	ChoicePerfectPrompt = "perfect_prompt"
	ChoiceAgentsBeaten  = "agents_defeated"
	ChoiceTheOne        = "the_one"
	ChoiceChosen        = "chosen"
	ChoiceAwakened      = "awakened"
	ChoiceContinue      = "continue"
)

// disqualifyingChoices end a perfect run the moment one is made.
var disqualifyingChoices = []string{ChoiceCloseMessage, ChoiceBluePill}

const (
	AchievementGlitchHunter         Achievement = "glitch_hunter"
	AchievementSpeedRunner          Achievement = "speed_runner"
	AchievementPerfectCode          Achievement = "perfect_code"
	AchievementEvangelist           Achievement = "evangelist"
	AchievementWhiteRabbitCollector Achievement = "white_rabbit_collector"
	AchievementMatrixMaster         Achievement = "matrix_master"
	AchievementDejaVu               Achievement = "deja_vu"
	AchievementSpoonBender          Achievement = "spoon_bender"
	AchievementCodeBreaker          Achievement = "code_breaker"
)

var AllAchievements = []Achievement{AchievementGlitchHunter, AchievementSpeedRunner, AchievementPerfectCode, AchievementEvangelist, AchievementWhiteRabbitCollector, AchievementMatrixMaster, AchievementDejaVu, AchievementSpoonBender, AchievementCodeBreaker}

const (
	EggWhiteRabbitLoading    EasterEgg = "white_rabbit_1"
	EggWhiteRabbitScene1     EasterEgg = "white_rabbit_2"
	EggWhiteRabbitScene2     EasterEgg = "white_rabbit_3"
	EggWhiteRabbitScene3A    EasterEgg = "white_rabbit_4"
	EggWhiteRabbitChallenge1 EasterEgg = "white_rabbit_challenge1"
	EggWhiteRabbitChallenge2 EasterEgg = "white_rabbit_challenge2"
	EggWhiteRabbitFinal      EasterEgg = "white_rabbit_5"
	EggWhiteRabbitEpilogue   EasterEgg = "white_rabbit_final"
	EggBlackCat              EasterEgg = "black_cat_click"
	EggBlackCatDoubleClick   EasterEgg = "black_cat_double_click"
	EggNoSpoon               EasterEgg = "there_is_no_spoon"
	EggSecretCode            EasterEgg = "secret_code_2319"
)

// WhiteRabbitThreshold is the number of rabbit finds that earns the collector badge.
const WhiteRabbitThreshold = 4

// Generic helpers
func contains[T ~string](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s Scene) Validate() bool       { return contains(AllScenes, s) }
func (a Achievement) Validate() bool { return contains(AllAchievements, a) }

// IsWhiteRabbit reports whether the egg is one of the placed rabbit triggers.
func (e EasterEgg) IsWhiteRabbit() bool { return strings.HasPrefix(string(e), "white_rabbit") }

// IsGlitch reports whether the egg belongs to the glitch family.
func (e EasterEgg) IsGlitch() bool { return strings.HasPrefix(string(e), "glitch") }

// ParseScene maps raw identifiers onto the known scene set; anything else is loading.
func ParseScene(raw string) Scene {
	s := Scene(raw)
	if s.Validate() {
		return s
	}
	return SceneLoading
}

// IsDisqualifying reports whether choosing id forfeits a perfect run.
func IsDisqualifying(id string) bool { return contains(disqualifyingChoices, id) }

// List helpers
func ListScenes() []Scene             { return append([]Scene{}, AllScenes...) }
func ListAchievements() []Achievement { return append([]Achievement{}, AllAchievements...) }
