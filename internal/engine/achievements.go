package engine

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// AchievementInfo describes an achievement for display.
type AchievementInfo struct {
	ID          Achievement `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
}

var catalog = map[Achievement]AchievementInfo{
	AchievementGlitchHunter:         {AchievementGlitchHunter, "Glitch Hunter", "Find all hidden glitches in the system", "🔍"},
	AchievementSpeedRunner:          {AchievementSpeedRunner, "Speed Runner", "Complete the quest in less than 5 minutes", "⚡"},
	AchievementPerfectCode:          {AchievementPerfectCode, "Perfect Code", "Complete the quest without a single mistake", "💎"},
	AchievementEvangelist:           {AchievementEvangelist, "Evangelist", "Share the quest with 3+ friends", "📢"},
	AchievementWhiteRabbitCollector: {AchievementWhiteRabbitCollector, "White Rabbit Collector", "Find all white rabbits", "🐰"},
	AchievementMatrixMaster:         {AchievementMatrixMaster, "Matrix Master", "Get all other achievements", "👑"},
	AchievementDejaVu:               {AchievementDejaVu, "Deja Vu", "Click the black cat twice", "🐱"},
	AchievementSpoonBender:          {AchievementSpoonBender, "Spoon Bender", "Enter the secret phrase", "🥄"},
	AchievementCodeBreaker:          {AchievementCodeBreaker, "Code Breaker", "Enter secret code 2319", "🔓"},
}

// Describe returns display data for id. Unknown ids (backend or cosmetic
// grants) get a humanized name and no description.
func Describe(id Achievement) AchievementInfo {
	if info, ok := catalog[id]; ok {
		return info
	}
	name := strings.ReplaceAll(string(id), "_", " ")
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return AchievementInfo{ID: id, Name: name, Icon: "★"}
}

// easterEggGrants maps hidden triggers onto the achievement they unlock.
var easterEggGrants = map[EasterEgg]Achievement{
	EggBlackCatDoubleClick: AchievementDejaVu,
	EggNoSpoon:             AchievementSpoonBender,
	EggSecretCode:          AchievementCodeBreaker,
}

// EasterEggGrants enumerates the egg → achievement table.
func EasterEggGrants() map[EasterEgg]Achievement {
	out := make(map[EasterEgg]Achievement, len(easterEggGrants))
	for k, v := range easterEggGrants {
		out[k] = v
	}
	return out
}

// GlitchHunterCount is how many glitch eggs earn Glitch Hunter.
const GlitchHunterCount = 5

// ruleEnv is the snapshot derived achievement rules are evaluated against.
type ruleEnv struct {
	QuestCompleted    bool
	HasCompletionTime bool
	CompletionTime    int64
	PerfectRun        bool
	WhiteRabbits      int
	GlitchEggs        int
	Achievements      []string
}

func newRuleEnv(s QuestState) ruleEnv {
	env := ruleEnv{
		QuestCompleted: s.QuestCompleted,
		PerfectRun:     s.PerfectRun,
		WhiteRabbits:   s.WhiteRabbitsFound,
		Achievements:   make([]string, 0, len(s.Achievements)),
	}
	if s.CompletionTime != nil {
		env.HasCompletionTime = true
		env.CompletionTime = *s.CompletionTime
	}
	for _, egg := range s.EasterEggsFound {
		if egg.IsGlitch() {
			env.GlitchEggs++
		}
	}
	for _, a := range s.Achievements {
		env.Achievements = append(env.Achievements, string(a))
	}
	return env
}

// derivedRules are the achievements earned from accumulated state rather than
// a single trigger. Order matters: matrix_master looks at the others.
var derivedRules = []struct {
	id   Achievement
	expr string
}{
	{AchievementSpeedRunner, fmt.Sprintf("QuestCompleted && HasCompletionTime && CompletionTime < %d", SpeedRunLimitMS)},
	{AchievementPerfectCode, "QuestCompleted && PerfectRun"},
	{AchievementGlitchHunter, fmt.Sprintf("GlitchEggs >= %d", GlitchHunterCount)},
	{AchievementWhiteRabbitCollector, fmt.Sprintf("WhiteRabbits >= %d", WhiteRabbitThreshold)},
	{AchievementMatrixMaster, masterExpr()},
}

// masterExpr requires every catalog achievement except itself and evangelist,
// which needs share tracking this client never sees.
func masterExpr() string {
	var ids []string
	for _, a := range AllAchievements {
		if a == AchievementMatrixMaster || a == AchievementEvangelist {
			continue
		}
		ids = append(ids, fmt.Sprintf("%q", string(a)))
	}
	return fmt.Sprintf("all([%s], {# in Achievements})", strings.Join(ids, ", "))
}

type compiledRule struct {
	id      Achievement
	program *vm.Program
}

// RuleSet evaluates derived achievement rules.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet compiles the built-in derived achievement rules.
func NewRuleSet() (*RuleSet, error) {
	rs := &RuleSet{}
	for _, r := range derivedRules {
		program, err := expr.Compile(r.expr, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.id, err)
		}
		rs.rules = append(rs.rules, compiledRule{id: r.id, program: program})
	}
	return rs, nil
}

// Earned returns the derived achievements s qualifies for but does not hold yet,
// in rule order. Rules are re-run until nothing new unlocks.
func (rs *RuleSet) Earned(s QuestState) ([]Achievement, error) {
	work := s.Clone()
	var out []Achievement
	for {
		changed := false
		env := newRuleEnv(work)
		for _, r := range rs.rules {
			if work.HasAchievement(r.id) {
				continue
			}
			v, err := expr.Run(r.program, env)
			if err != nil {
				return out, fmt.Errorf("run rule %s: %w", r.id, err)
			}
			if ok, _ := v.(bool); ok {
				work.addAchievement(r.id)
				out = append(out, r.id)
				changed = true
			}
		}
		if !changed {
			return out, nil
		}
	}
}
