package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrChoiceInFlight is returned when a choice arrives while another is still resolving.
var ErrChoiceInFlight = errors.New("a choice is already being resolved")

// ErrNotChallenge is returned when a challenge outcome is reported for another scene.
var ErrNotChallenge = errors.New("scene is not a challenge")

// Persister stores the quest snapshot and the promo-code hand-off value.
type Persister interface {
	Load(ctx context.Context) (QuestState, error)
	Save(ctx context.Context, st QuestState) error
	Clear(ctx context.Context) error
	SavePromo(ctx context.Context, code string) error
}

// Observer is notified after state changes have been persisted.
// Callbacks run outside the engine lock and may read from the engine.
type Observer interface {
	OnStart(userID string)
	OnTransition(req TransitionRequest, res TransitionResult)
	OnAchievement(id Achievement)
	OnEasterEgg(id EasterEgg)
	OnComplete(p Progress)
}

// BaseObserver implements Observer with no-ops; embed it to pick callbacks.
type BaseObserver struct{}

func (BaseObserver) OnStart(string) {}
func (BaseObserver) OnTransition(TransitionRequest, TransitionResult) {}
func (BaseObserver) OnAchievement(Achievement) {}
func (BaseObserver) OnEasterEgg(EasterEgg) {}
func (BaseObserver) OnComplete(Progress) {}

// Quest is what the presentation layer may do with the engine.
type Quest interface {
	StartQuest(ctx context.Context)
	MakeChoice(ctx context.Context, scene Scene, choice, label string) (TransitionResult, error)
	CompleteChallenge(ctx context.Context, scene Scene, choice string, success bool) (TransitionResult, error)
	AutoAdvance(ctx context.Context) (Scene, bool)
	TriggerEasterEgg(ctx context.Context, id EasterEgg)
	CompleteQuest(ctx context.Context, promoCode string)
	Progress() Progress
	UserID() string
}

var _ Quest = (*Engine)(nil)

// Engine owns the quest state. Every mutation is persisted before the call returns.
type Engine struct {
	mu        sync.Mutex
	state     QuestState
	inFlight  bool
	pending   []func(Observer)
	userID    string
	persister Persister
	resolver  Resolver
	starter   Starter
	rules     *RuleSet
	clock     Clock
	logger    *zap.Logger
	observers []Observer
}

type options struct {
	remote    Resolver
	fallback  Resolver
	starter   Starter
	clock     Clock
	logger    *zap.Logger
	observers []Observer
}

// Option configures an Engine.
type Option func(*options)

// WithRemote sets the backend resolver tried before the fallback table.
func WithRemote(r Resolver) Option { return func(o *options) { o.remote = r } }

// WithFallbackResolver replaces the default offline resolver.
func WithFallbackResolver(r Resolver) Option { return func(o *options) { o.fallback = r } }

// WithStarter sets who is told that the quest started.
func WithStarter(s Starter) Option { return func(o *options) { o.starter = s } }

// WithClock overrides the wall clock.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithObserver registers an observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// New loads the persisted snapshot for userID and returns a ready engine.
// A snapshot that cannot be read is replaced by defaults.
func New(ctx context.Context, userID string, p Persister, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: persister is required")
	}
	o := options{clock: SystemClock(), logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.fallback == nil {
		o.fallback = NewFallbackResolver()
	}
	rules, err := NewRuleSet()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		userID:    userID,
		persister: p,
		starter:   o.starter,
		rules:     rules,
		clock:     o.clock,
		logger:    o.logger.Named("engine"),
		observers: o.observers,
	}
	e.resolver = WithFallback(o.remote, o.fallback, func(req TransitionRequest, err error) {
		e.logger.Warn("backend unavailable, using fallback table",
			zap.String("scene", string(req.Scene)),
			zap.String("choice", req.Choice),
			zap.Error(err))
	})
	st, err := p.Load(ctx)
	if err != nil {
		e.logger.Warn("could not load saved progress, starting fresh", zap.Error(err))
		st = DefaultState()
	}
	st.Normalize()
	e.state = st
	return e, nil
}

// UserID returns the anonymous player identifier the engine reports as.
func (e *Engine) UserID() string { return e.userID }

// State returns a deep copy of the current state.
func (e *Engine) State() QuestState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Progress returns the display projection of the current state.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Progress()
}

// StartQuest stamps the start time once and pings the backend. It never fails.
func (e *Engine) StartQuest(ctx context.Context) {
	e.mu.Lock()
	if e.state.StartTime == nil {
		now := e.clock.Now().UnixMilli()
		e.state.StartTime = &now
	}
	e.persistLocked(ctx)
	e.emit(func(o Observer) { o.OnStart(e.userID) })
	e.unlockAndFlush()

	if e.starter == nil {
		return
	}
	if err := e.starter.Start(ctx, e.userID); err != nil {
		e.logger.Warn("quest start not acknowledged by backend", zap.Error(err))
	}
}

// MakeChoice records choice for scene and advances the quest. Backend failures
// are absorbed by the fallback table; the only error is ErrChoiceInFlight.
func (e *Engine) MakeChoice(ctx context.Context, scene Scene, choice, label string) (TransitionResult, error) {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return TransitionResult{}, ErrChoiceInFlight
	}
	e.inFlight = true
	e.state.Choices[scene] = choice
	if e.state.PerfectRun && IsDisqualifying(choice) {
		e.state.PerfectRun = false
	}
	e.persistLocked(ctx)
	req := TransitionRequest{UserID: e.userID, Scene: scene, Choice: choice, Label: label}
	e.mu.Unlock()

	res, err := e.resolver.Resolve(ctx, req)
	if err != nil {
		// The composed resolver ends in the fallback table, which cannot fail.
		res, _ = NewFallbackResolver().Resolve(ctx, req)
	}
	res.Next = ParseScene(string(res.Next))

	e.mu.Lock()
	e.inFlight = false
	e.applyLocked(ctx, req, res)
	e.persistLocked(ctx)
	e.unlockAndFlush()
	return res, nil
}

// CompleteChallenge reports the outcome of a challenge scene. Failures leave the
// state untouched and report a self-transition; successes resolve like a choice.
func (e *Engine) CompleteChallenge(ctx context.Context, scene Scene, choice string, success bool) (TransitionResult, error) {
	if !IsChallenge(scene) {
		return TransitionResult{}, fmt.Errorf("%w: %s", ErrNotChallenge, scene)
	}
	if !success {
		return TransitionResult{Next: scene, Achievements: []Achievement{}, Source: SourceLocal}, nil
	}
	return e.MakeChoice(ctx, scene, choice, "challenge passed")
}

// AutoAdvance moves an auto-advancing scene to its successor without
// contacting the backend. It reports false when the current scene waits for input.
func (e *Engine) AutoAdvance(ctx context.Context) (Scene, bool) {
	e.mu.Lock()
	from := e.state.CurrentScene
	next, ok := AutoAdvanceTarget(from)
	if !ok {
		e.mu.Unlock()
		return from, false
	}
	e.state.CurrentScene = next
	e.persistLocked(ctx)
	req := TransitionRequest{UserID: e.userID, Scene: from, Choice: ChoiceContinue}
	res := TransitionResult{Next: next, Achievements: []Achievement{}, Source: SourceLocal}
	e.emit(func(o Observer) { o.OnTransition(req, res) })
	e.unlockAndFlush()
	return next, true
}

// CompleteQuest marks the quest finished. Only the first call has any effect.
// An empty promoCode completes without handing out a code.
func (e *Engine) CompleteQuest(ctx context.Context, promoCode string) {
	var promo *string
	if promoCode != "" {
		promo = &promoCode
	}
	e.mu.Lock()
	if e.completeLocked(ctx, promo) {
		e.checkLocked()
		e.persistLocked(ctx)
	}
	e.unlockAndFlush()
}

// AddAchievement grants id once; repeated grants are no-ops.
func (e *Engine) AddAchievement(ctx context.Context, id Achievement) {
	e.mu.Lock()
	if e.grantLocked(id) {
		e.persistLocked(ctx)
	}
	e.unlockAndFlush()
}

// FindWhiteRabbit counts one rabbit sighting. Every call counts, even for a
// rabbit seen before; the collector badge unlocks at WhiteRabbitThreshold.
func (e *Engine) FindWhiteRabbit(ctx context.Context) {
	e.mu.Lock()
	e.findRabbitLocked()
	e.persistLocked(ctx)
	e.unlockAndFlush()
}

// TriggerEasterEgg records a hidden trigger and grants its achievement, if any.
// Rabbit eggs also count as a rabbit sighting on every trigger.
func (e *Engine) TriggerEasterEgg(ctx context.Context, id EasterEgg) {
	if id == "" {
		return
	}
	e.mu.Lock()
	changed := false
	if id.IsWhiteRabbit() {
		e.findRabbitLocked()
		changed = true
	}
	if e.state.addEasterEgg(id) {
		changed = true
		e.emit(func(o Observer) { o.OnEasterEgg(id) })
	}
	if grant, ok := easterEggGrants[id]; ok && e.grantLocked(grant) {
		changed = true
	}
	if e.checkLocked() > 0 {
		changed = true
	}
	if changed {
		e.persistLocked(ctx)
	}
	e.unlockAndFlush()
}

// CheckAchievements evaluates derived achievement rules and returns new grants.
func (e *Engine) CheckAchievements(ctx context.Context) []Achievement {
	e.mu.Lock()
	before := len(e.state.Achievements)
	if e.checkLocked() > 0 {
		e.persistLocked(ctx)
	}
	granted := append([]Achievement{}, e.state.Achievements[before:]...)
	e.unlockAndFlush()
	return granted
}

// ResetProgress wipes the saved snapshot and starts over. Irreversible.
func (e *Engine) ResetProgress(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.persister.Clear(ctx); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	e.state = DefaultState()
	e.inFlight = false
	e.pending = nil
	return nil
}

func (e *Engine) applyLocked(ctx context.Context, req TransitionRequest, res TransitionResult) {
	e.state.CurrentScene = res.Next
	e.emit(func(o Observer) { o.OnTransition(req, res) })
	for _, a := range res.Achievements {
		e.grantLocked(a)
	}
	if res.PromoCode != nil {
		e.completeLocked(ctx, res.PromoCode)
	}
	e.checkLocked()
}

func (e *Engine) completeLocked(ctx context.Context, promo *string) bool {
	if e.state.QuestCompleted {
		return false
	}
	elapsed := int64(0)
	if e.state.StartTime != nil {
		elapsed = e.clock.Now().UnixMilli() - *e.state.StartTime
		if elapsed < 0 {
			elapsed = 0
		}
	}
	e.state.QuestCompleted = true
	e.state.CompletionTime = &elapsed
	e.state.SpeedRun = elapsed < SpeedRunLimitMS
	if promo != nil && e.state.PromoCode == nil {
		code := *promo
		e.state.PromoCode = &code
		if err := e.persister.SavePromo(ctx, code); err != nil {
			e.logger.Error("failed to store promo hand-off", zap.Error(err))
		}
	}
	p := e.state.Progress()
	e.emit(func(o Observer) { o.OnComplete(p) })
	return true
}

func (e *Engine) findRabbitLocked() {
	e.state.WhiteRabbitsFound++
	if e.state.WhiteRabbitsFound >= WhiteRabbitThreshold {
		e.grantLocked(AchievementWhiteRabbitCollector)
	}
}

func (e *Engine) grantLocked(id Achievement) bool {
	if !e.state.addAchievement(id) {
		return false
	}
	e.emit(func(o Observer) { o.OnAchievement(id) })
	return true
}

// checkLocked applies derived rules and returns how many achievements were granted.
func (e *Engine) checkLocked() int {
	earned, err := e.rules.Earned(e.state)
	if err != nil {
		e.logger.Error("achievement rule failed", zap.Error(err))
	}
	n := 0
	for _, a := range earned {
		if e.grantLocked(a) {
			n++
		}
	}
	return n
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.persister.Save(ctx, e.state.Clone()); err != nil {
		e.logger.Error("failed to persist quest state", zap.Error(err))
	}
}

func (e *Engine) emit(fn func(Observer)) {
	if len(e.observers) == 0 {
		return
	}
	e.pending = append(e.pending, fn)
}

// unlockAndFlush releases the lock and then delivers queued notifications.
func (e *Engine) unlockAndFlush() {
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	for _, fn := range pending {
		for _, o := range e.observers {
			fn(o)
		}
	}
}
