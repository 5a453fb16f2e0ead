package engine

// SpeedRunLimitMS is the completion time, in milliseconds, under which a run counts as a speed run.
const SpeedRunLimitMS int64 = 5 * 60 * 1000

// QuestState holds everything the quest persists between sessions.
type QuestState struct {
	CurrentScene      Scene            `json:"current_scene"`
	Choices           map[Scene]string `json:"choices"`
	Achievements      []Achievement    `json:"achievements"`
	EasterEggsFound   []EasterEgg      `json:"easter_eggs_found"`
	WhiteRabbitsFound int              `json:"white_rabbits_found"`
	QuestCompleted    bool             `json:"quest_completed"`
	CompletionTime    *int64           `json:"completion_time"` // ms
	PromoCode         *string          `json:"promo_code"`
	PerfectRun        bool             `json:"perfect_run"`
	SpeedRun          bool             `json:"speed_run"`
	StartTime         *int64           `json:"start_time"` // unix ms
}

// DefaultState is the state of a player who has never started the quest.
func DefaultState() QuestState {
	return QuestState{
		CurrentScene:    SceneLoading,
		Choices:         map[Scene]string{},
		Achievements:    []Achievement{},
		EasterEggsFound: []EasterEgg{},
		PerfectRun:      true,
	}
}

// Normalize repairs a decoded snapshot: unknown scenes fall back to loading,
// nil collections become empty and duplicate set members are dropped.
func (s *QuestState) Normalize() {
	s.CurrentScene = ParseScene(string(s.CurrentScene))
	if s.Choices == nil {
		s.Choices = map[Scene]string{}
	}
	s.Achievements = dedupe(s.Achievements)
	s.EasterEggsFound = dedupe(s.EasterEggsFound)
	if s.WhiteRabbitsFound < 0 {
		s.WhiteRabbitsFound = 0
	}
	if s.CompletionTime != nil && *s.CompletionTime < 0 {
		zero := int64(0)
		s.CompletionTime = &zero
	}
}

// Clone returns a deep copy safe to hand outside the engine.
func (s QuestState) Clone() QuestState {
	out := s
	out.Choices = make(map[Scene]string, len(s.Choices))
	for k, v := range s.Choices {
		out.Choices[k] = v
	}
	out.Achievements = append([]Achievement{}, s.Achievements...)
	out.EasterEggsFound = append([]EasterEgg{}, s.EasterEggsFound...)
	out.CompletionTime = cloneInt64(s.CompletionTime)
	out.StartTime = cloneInt64(s.StartTime)
	if s.PromoCode != nil {
		p := *s.PromoCode
		out.PromoCode = &p
	}
	return out
}

// HasAchievement reports whether id has been earned.
func (s QuestState) HasAchievement(id Achievement) bool { return contains(s.Achievements, id) }

// HasEasterEgg reports whether id has been found.
func (s QuestState) HasEasterEgg(id EasterEgg) bool { return contains(s.EasterEggsFound, id) }

// addAchievement inserts id once, preserving insertion order.
func (s *QuestState) addAchievement(id Achievement) bool {
	if id == "" || s.HasAchievement(id) {
		return false
	}
	s.Achievements = append(s.Achievements, id)
	return true
}

func (s *QuestState) addEasterEgg(id EasterEgg) bool {
	if id == "" || s.HasEasterEgg(id) {
		return false
	}
	s.EasterEggsFound = append(s.EasterEggsFound, id)
	return true
}

// Progress is the read-only projection shown to players.
type Progress struct {
	CurrentScene      Scene         `json:"current_scene"`
	QuestCompleted    bool          `json:"quest_completed"`
	CompletionTime    *int64        `json:"completion_time"`
	Achievements      []Achievement `json:"achievements"`
	WhiteRabbitsFound int           `json:"white_rabbits_found"`
	EasterEggsFound   []EasterEgg   `json:"easter_eggs_found"`
	PromoCode         *string       `json:"promo_code"`
	PerfectRun        bool          `json:"perfect_run"`
	SpeedRun          bool          `json:"speed_run"`
	ChoicesMade       int           `json:"choices_made"`
}

// Progress projects the state for display. The result shares nothing with s.
func (s QuestState) Progress() Progress {
	c := s.Clone()
	return Progress{
		CurrentScene:      c.CurrentScene,
		QuestCompleted:    c.QuestCompleted,
		CompletionTime:    c.CompletionTime,
		Achievements:      c.Achievements,
		WhiteRabbitsFound: c.WhiteRabbitsFound,
		EasterEggsFound:   c.EasterEggsFound,
		PromoCode:         c.PromoCode,
		PerfectRun:        c.PerfectRun,
		SpeedRun:          c.SpeedRun,
		ChoicesMade:       len(c.Choices),
	}
}

func dedupe[T ~string](in []T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v == "" || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
