package metrics

import (
	"context"
	"fmt"
	"os"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// Recorder counts quest activity in a private registry and implements
// engine.Observer.
type Recorder struct {
	engine.BaseObserver

	registry     *prometheus.Registry
	started      prometheus.Counter
	transitions  *prometheus.CounterVec
	achievements *prometheus.CounterVec
	eggs         *prometheus.CounterVec
	completed    prometheus.Counter
	duration     prometheus.Histogram
	logger       *zap.Logger
}

var _ engine.Observer = (*Recorder)(nil)

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	f := promauto.With(registry)
	return &Recorder{
		registry: registry,
		started: f.NewCounter(prometheus.CounterOpts{
			Name: "rabbithole_quests_started_total",
			Help: "Total number of quest starts.",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbithole_transitions_total",
			Help: "Scene transitions, partitioned by origin scene and resolution path.",
		}, []string{"scene", "source"}),
		achievements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbithole_achievements_total",
			Help: "Achievements granted, partitioned by id.",
		}, []string{"achievement"}),
		eggs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbithole_easter_eggs_total",
			Help: "Easter eggs found for the first time, partitioned by id.",
		}, []string{"egg"}),
		completed: f.NewCounter(prometheus.CounterOpts{
			Name: "rabbithole_quests_completed_total",
			Help: "Total number of completed quests.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rabbithole_completion_seconds",
			Help:    "Time from quest start to completion.",
			Buckets: []float64{60, 120, 180, 300, 600, 1200, 3600},
		}),
		logger: logger.Named("Metrics"),
	}
}

// Registry exposes the gatherer for tests and exporters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) OnStart(string) { r.started.Inc() }

func (r *Recorder) OnTransition(req engine.TransitionRequest, res engine.TransitionResult) {
	r.transitions.WithLabelValues(string(req.Scene), string(res.Source)).Inc()
}

func (r *Recorder) OnAchievement(id engine.Achievement) {
	r.achievements.WithLabelValues(string(id)).Inc()
}

func (r *Recorder) OnEasterEgg(id engine.EasterEgg) { r.eggs.WithLabelValues(string(id)).Inc() }

func (r *Recorder) OnComplete(p engine.Progress) {
	r.completed.Inc()
	if p.CompletionTime != nil {
		r.duration.Observe(float64(*p.CompletionTime) / 1000)
	}
}

// Push sends the registry to a Pushgateway under job. It is a no-op without url.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	instance := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	pusher := push.New(url, job).Gatherer(r.registry).Grouping("instance", instance)
	if err := pusher.PushContext(ctx); err != nil {
		r.logger.Warn("Failed to push metrics", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("push metrics: %w", err)
	}
	r.logger.Debug("Metrics pushed", zap.String("job", job), zap.String("instance", instance))
	return nil
}
