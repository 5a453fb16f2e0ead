package remote

import (
	"context"

	"github.com/DaanHessen/rabbithole/internal/engine"
)

// Player is how the quest announces itself on start.
type Player struct {
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// Resolver adapts Client to the engine's Resolver and Starter.
type Resolver struct {
	client *Client
	player Player
}

var (
	_ engine.Resolver = (*Resolver)(nil)
	_ engine.Starter  = (*Resolver)(nil)
)

func NewResolver(c *Client, p Player) *Resolver { return &Resolver{client: c, player: p} }

func (r *Resolver) Resolve(ctx context.Context, req engine.TransitionRequest) (engine.TransitionResult, error) {
	resp, err := r.client.Choice(ctx, ChoiceRequest{
		TelegramID: req.UserID,
		SceneID:    string(req.Scene),
		ChoiceID:   req.Choice,
		ChoiceText: req.Label,
	})
	if err != nil {
		return engine.TransitionResult{}, err
	}
	res := engine.TransitionResult{
		Next:         engine.Scene(resp.NextSceneID),
		Achievements: make([]engine.Achievement, 0, len(resp.AchievementsEarned)),
		PromoCode:    resp.PromoCode,
		Content:      resp.SceneContent,
		Source:       engine.SourceRemote,
	}
	for _, a := range resp.AchievementsEarned {
		res.Achievements = append(res.Achievements, engine.Achievement(a))
	}
	return res, nil
}

func (r *Resolver) Start(ctx context.Context, userID string) error {
	_, err := r.client.Start(ctx, StartRequest{
		TelegramID:   userID,
		Username:     r.player.Username,
		FirstName:    r.player.FirstName,
		LastName:     r.player.LastName,
		LanguageCode: r.player.LanguageCode,
	})
	return err
}
