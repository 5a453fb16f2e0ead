package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopPersister struct{}

func (nopPersister) Load(context.Context) (engine.QuestState, error) { return engine.DefaultState(), nil }
func (nopPersister) Save(context.Context, engine.QuestState) error { return nil }
func (nopPersister) Clear(context.Context) error { return nil }
func (nopPersister) SavePromo(context.Context, string) error { return nil }

func TestRecorderObservesEngine(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(zap.NewNop())
	e, err := engine.New(ctx, "user_1_a", nopPersister{}, engine.WithObserver(rec))
	require.NoError(t, err)

	e.StartQuest(ctx)
	e.AutoAdvance(ctx)
	_, err = e.MakeChoice(ctx, engine.SceneOne, engine.ChoiceFollowRabbit, "")
	require.NoError(t, err)
	e.TriggerEasterEgg(ctx, engine.EggSecretCode)
	e.TriggerEasterEgg(ctx, engine.EggSecretCode)
	_, err = e.MakeChoice(ctx, engine.SceneFinalChoice, engine.ChoiceTheOne, "")
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.started))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.transitions.WithLabelValues("loading", "local")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.transitions.WithLabelValues("scene1", "fallback")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.eggs.WithLabelValues("secret_code_2319")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.achievements.WithLabelValues("code_breaker")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.completed))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.duration))
}

func TestPush(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/metrics/job/rabbithole/instance/"), r.URL.Path)
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := NewRecorder(nil)
	rec.OnStart("u")
	require.NoError(t, rec.Push(context.Background(), srv.URL, "rabbithole"))
	assert.Equal(t, int32(1), hits.Load())
	assert.NoError(t, rec.Push(context.Background(), "", "rabbithole"))
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	assert.Error(t, NewRecorder(nil).Push(context.Background(), srv.URL, "rabbithole"))
}
