package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"go.uber.org/zap"
)

// Keys names the storage slots of one namespace.
type Keys struct{ Namespace string }

func (k Keys) Progress() string { return k.Namespace + "_quest_progress" }
func (k Keys) UserID() string { return k.Namespace + "_user_id" }
func (k Keys) FirstVisit() string { return k.Namespace + "_first_visit" }
func (k Keys) Promo() string { return k.Namespace + "_promo_code" }

// QuestStore persists quest snapshots as JSON under the namespace's progress key.
type QuestStore struct {
	kv     KV
	keys   Keys
	logger *zap.Logger
}

var _ engine.Persister = (*QuestStore)(nil)

func NewQuestStore(kv KV, namespace string, logger *zap.Logger) *QuestStore {
	return &QuestStore{kv: kv, keys: Keys{Namespace: namespace}, logger: logger.Named("QuestStore")}
}

// Keys returns the slot names this store uses.
func (q *QuestStore) Keys() Keys { return q.keys }

// Load returns the saved snapshot. A missing or unreadable snapshot yields the
// default state; only backend failures are returned as errors.
func (q *QuestStore) Load(ctx context.Context) (engine.QuestState, error) {
	raw, err := q.kv.Get(ctx, q.keys.Progress())
	if errors.Is(err, ErrNotFound) {
		return engine.DefaultState(), nil
	}
	if err != nil {
		return engine.DefaultState(), err
	}
	st := engine.DefaultState()
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		q.logger.Warn("discarding corrupt quest snapshot", zap.String("key", q.keys.Progress()), zap.Error(err))
		return engine.DefaultState(), nil
	}
	st.Normalize()
	return st, nil
}

func (q *QuestStore) Save(ctx context.Context, st engine.QuestState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return wrap(err, "encode quest state")
	}
	return q.kv.Set(ctx, q.keys.Progress(), string(raw))
}

// Clear removes the snapshot. Identity and promo slots are kept.
func (q *QuestStore) Clear(ctx context.Context) error {
	return q.kv.Delete(ctx, q.keys.Progress())
}

func (q *QuestStore) SavePromo(ctx context.Context, code string) error {
	return q.kv.Set(ctx, q.keys.Promo(), code)
}

// Promo returns the last handed-off promo code, or "" when none was stored.
func (q *QuestStore) Promo(ctx context.Context) (string, error) {
	code, err := q.kv.Get(ctx, q.keys.Promo())
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return code, err
}
