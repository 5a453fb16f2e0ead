package remote

import (
	"context"
	"sync"
	"time"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/identity"
	"go.uber.org/zap"
)

// Analytics event types.
const (
	EventPageView      = "page_view"
	EventQuestStart    = "quest_start"
	EventQuestComplete = "quest_complete"
	EventChoiceMade    = "choice_made"
	EventSceneTime     = "scene_time"
)

// Event is the analytics payload.
type Event struct {
	UserID          string         `json:"user_id" validate:"required"`
	Fingerprint     string         `json:"fingerprint"`
	SessionID       string         `json:"session_id" validate:"required"`
	EventType       string         `json:"event_type" validate:"oneof=page_view quest_start quest_complete choice_made scene_time"`
	EventData       map[string]any `json:"event_data"`
	IsReturningUser bool           `json:"is_returning_user"`
}

// Visitor is who the tracker reports about.
type Visitor struct {
	UserID      string
	Fingerprint string
	Session     identity.Session
	Device      identity.DeviceInfo
	Returning   bool
	FirstVisit  time.Time
}

// Tracker sends analytics events without blocking the caller. Failures are
// logged and dropped. It also observes the engine.
type Tracker struct {
	engine.BaseObserver

	client  *Client
	visitor Visitor
	clock   engine.Clock
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

var _ engine.Observer = (*Tracker)(nil)

func NewTracker(c *Client, v Visitor, clock engine.Clock, logger *zap.Logger) *Tracker {
	if clock == nil {
		clock = engine.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		client:  c,
		visitor: v,
		clock:   clock,
		timeout: c.httpClient.Timeout,
		logger:  logger.Named("Analytics"),
	}
}

// Track queues one event.
func (t *Tracker) Track(eventType string, data map[string]any) {
	ev := t.build(eventType, data)
	if err := t.client.validate.Struct(ev); err != nil {
		t.logger.Warn("Dropping invalid analytics event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx := context.Background()
		if t.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}
		if err := t.client.postJSON(ctx, "/api/v1/analytics/track", ev, nil); err != nil {
			t.logger.Warn("Analytics tracking failed", zap.String("event_type", eventType), zap.Error(err))
		}
	}()
}

// Flush waits for queued events or for ctx to end.
func (t *Tracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) build(eventType string, data map[string]any) Event {
	payload := map[string]any{
		"deviceType": t.visitor.Device.DeviceType,
		"browser":    t.visitor.Device.Browser,
		"os":         t.visitor.Device.OS,
		"language":   t.visitor.Device.Language,
		"timestamp":  t.clock.Now().UTC().Format(time.RFC3339Nano),
		"referrer":   "direct",
	}
	if t.visitor.Device.ScreenResolution != "" {
		payload["screenResolution"] = t.visitor.Device.ScreenResolution
	}
	for k, v := range data {
		payload[k] = v
	}
	return Event{
		UserID:          t.visitor.UserID,
		Fingerprint:     t.visitor.Fingerprint,
		SessionID:       t.visitor.Session.ID,
		EventType:       eventType,
		EventData:       payload,
		IsReturningUser: t.visitor.Returning,
	}
}

func (t *Tracker) PageView(page string) {
	t.Track(EventPageView, map[string]any{"page": page})
}

func (t *Tracker) SceneTime(scene engine.Scene, spent time.Duration) {
	t.Track(EventSceneTime, map[string]any{"scene_id": string(scene), "time_spent": spent.Milliseconds()})
}

func (t *Tracker) OnStart(string) {
	data := map[string]any{"first_visit": nil}
	if !t.visitor.FirstVisit.IsZero() {
		data["first_visit"] = t.visitor.FirstVisit.UTC().Format(time.RFC3339Nano)
	}
	t.Track(EventQuestStart, data)
}

func (t *Tracker) OnTransition(req engine.TransitionRequest, res engine.TransitionResult) {
	if res.Source == engine.SourceLocal {
		return
	}
	t.Track(EventChoiceMade, map[string]any{"scene_id": string(req.Scene), "choice_id": req.Choice})
}

func (t *Tracker) OnComplete(p engine.Progress) {
	data := map[string]any{
		"completed_at":    t.clock.Now().UTC().Format(time.RFC3339Nano),
		"completion_time": nil,
	}
	if p.CompletionTime != nil {
		data["completion_time"] = *p.CompletionTime
	}
	t.Track(EventQuestComplete, data)
}
