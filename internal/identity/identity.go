package identity

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/store"
	"go.uber.org/zap"
)

var suffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewUserID builds an anonymous identifier of the form user_<unix-ms>_<suffix>.
// The suffix carries 64 random bits.
func NewUserID(now time.Time, random io.Reader) (string, error) {
	var b [8]byte
	if _, err := io.ReadFull(random, b[:]); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), strings.ToLower(suffixEncoding.EncodeToString(b[:]))), nil
}

// Provider hands out the persisted anonymous user id of one storage namespace.
type Provider struct {
	kv     store.KV
	keys   store.Keys
	clock  engine.Clock
	random io.Reader
	logger *zap.Logger

	mu sync.Mutex
	id string
}

// Option configures a Provider.
type Option func(*Provider)

func WithClock(c engine.Clock) Option { return func(p *Provider) { p.clock = c } }
func WithRandom(r io.Reader) Option { return func(p *Provider) { p.random = r } }
func WithLogger(l *zap.Logger) Option { return func(p *Provider) { p.logger = l } }

func NewProvider(kv store.KV, namespace string, opts ...Option) *Provider {
	p := &Provider{
		kv:     kv,
		keys:   store.Keys{Namespace: namespace},
		clock:  engine.SystemClock(),
		random: rand.Reader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("identity")
	return p
}

// UserID returns the stored id or creates and stores a new one together with
// the first-visit timestamp. When storage fails the generated id is still
// returned and stays stable for the lifetime of the Provider.
func (p *Provider) UserID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id != "" {
		return p.id, nil
	}
	id, err := p.kv.Get(ctx, p.keys.UserID())
	if err == nil && id != "" {
		p.id = id
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		p.logger.Warn("could not read user id", zap.Error(err))
	}

	now := p.clock.Now()
	id, genErr := NewUserID(now, p.random)
	if genErr != nil {
		return "", genErr
	}
	p.id = id
	if err := p.kv.Set(ctx, p.keys.UserID(), id); err != nil {
		return id, fmt.Errorf("persist user id: %w", err)
	}
	if err := p.kv.Set(ctx, p.keys.FirstVisit(), now.UTC().Format(time.RFC3339Nano)); err != nil {
		return id, fmt.Errorf("persist first visit: %w", err)
	}
	p.logger.Info("new anonymous user", zap.String("user_id", id))
	return id, nil
}

// FirstVisit returns when the id was first created, if known.
func (p *Provider) FirstVisit(ctx context.Context) (time.Time, bool) {
	raw, err := p.kv.Get(ctx, p.keys.FirstVisit())
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsReturning reports whether an id was already stored for this namespace.
func (p *Provider) IsReturning(ctx context.Context) bool {
	_, err := p.kv.Get(ctx, p.keys.UserID())
	return err == nil
}
