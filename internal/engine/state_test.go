package engine

import (
	"encoding/json"
	"testing"
)

func TestDefaultState(t *testing.T) {
	s := DefaultState()
	if s.CurrentScene != SceneLoading {
		t.Fatalf("expected loading, got %s", s.CurrentScene)
	}
	if !s.PerfectRun || s.QuestCompleted || s.SpeedRun {
		t.Fatalf("unexpected flags: %+v", s)
	}
	if s.Choices == nil || s.Achievements == nil || s.EasterEggsFound == nil {
		t.Fatal("collections must be non-nil")
	}
	if s.StartTime != nil || s.CompletionTime != nil || s.PromoCode != nil {
		t.Fatal("optional fields must start unset")
	}
}

func TestNormalizeRepairsSnapshot(t *testing.T) {
	s := QuestState{
		CurrentScene:      "scene99",
		Achievements:      []Achievement{"dejavu", "dejavu", ""},
		EasterEggsFound:   []EasterEgg{EggBlackCat, EggBlackCat},
		WhiteRabbitsFound: -2,
	}
	s.Normalize()
	if s.CurrentScene != SceneLoading {
		t.Fatalf("unknown scene should normalize to loading, got %s", s.CurrentScene)
	}
	if len(s.Achievements) != 1 || len(s.EasterEggsFound) != 1 {
		t.Fatalf("duplicates not removed: %+v", s)
	}
	if s.Choices == nil {
		t.Fatal("choices must be non-nil")
	}
	if s.WhiteRabbitsFound != 0 {
		t.Fatalf("negative rabbit count kept: %d", s.WhiteRabbitsFound)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := DefaultState()
	s.Choices[SceneOne] = ChoiceFollowRabbit
	s.addAchievement(AchievementDejaVu)
	ms := int64(10)
	s.StartTime = &ms

	c := s.Clone()
	c.Choices[SceneTwo] = ChoiceRedPill
	c.Achievements[0] = "changed"
	*c.StartTime = 99

	if _, ok := s.Choices[SceneTwo]; ok {
		t.Fatal("clone shares choices map")
	}
	if s.Achievements[0] != AchievementDejaVu {
		t.Fatal("clone shares achievements slice")
	}
	if *s.StartTime != 10 {
		t.Fatal("clone shares start time")
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	s := DefaultState()
	s.CurrentScene = SceneFinalChoice
	s.Choices[SceneTwo] = ChoiceRedPill
	s.addEasterEgg(EggNoSpoon)
	start, done := int64(1700000000000), int64(120000)
	code := "WEB_DEMO_2024"
	s.StartTime, s.CompletionTime, s.PromoCode = &start, &done, &code

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got QuestState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CurrentScene != SceneFinalChoice || got.Choices[SceneTwo] != ChoiceRedPill {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if *got.StartTime != start || *got.CompletionTime != done || *got.PromoCode != code {
		t.Fatalf("round trip lost timestamps: %+v", got)
	}
}

func TestProgressProjection(t *testing.T) {
	s := DefaultState()
	s.Choices[SceneOne] = ChoiceFollowRabbit
	s.Choices[SceneTwo] = ChoiceRedPill
	s.WhiteRabbitsFound = 2
	p := s.Progress()
	if p.ChoicesMade != 2 || p.WhiteRabbitsFound != 2 || !p.PerfectRun {
		t.Fatalf("unexpected progress: %+v", p)
	}
	p.Achievements = append(p.Achievements, "x")
	if len(s.Achievements) != 0 {
		t.Fatal("progress shares state")
	}
}
