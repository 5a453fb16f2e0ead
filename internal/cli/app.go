package cli

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/identity"
	"github.com/DaanHessen/rabbithole/internal/logger"
	"github.com/DaanHessen/rabbithole/internal/remote"
	"github.com/DaanHessen/rabbithole/internal/store"
	"github.com/DaanHessen/rabbithole/internal/util"
)

// cosmeticChance is how often the offline path hands out a flavour badge.
const cosmeticChance = 0.25

// app is the wiring shared by the commands that touch player state.
type app struct {
	cfg       util.Config
	logger    *zap.Logger
	kv        store.KV
	quests    *store.QuestStore
	ids       *identity.Provider
	userID    string
	returning bool
}

func openApp(ctx context.Context, cfg util.Config) (*app, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPath: cfg.LogOutput})
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	kv, err := store.OpenKV(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, errors.Wrapf(err, "open %s store", cfg.StoreDriver)
	}
	a := &app{
		cfg:    cfg,
		logger: log,
		kv:     kv,
		quests: store.NewQuestStore(kv, cfg.Namespace, log),
		ids:    identity.NewProvider(kv, cfg.Namespace, identity.WithLogger(log)),
	}
	a.returning = a.ids.IsReturning(ctx)
	a.userID, err = a.ids.UserID(ctx)
	if err != nil {
		if a.userID == "" {
			a.Close()
			return nil, errors.Wrap(err, "create user id")
		}
		log.Warn("user id not persisted", zap.Error(err))
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) client() (*remote.Client, error) {
	c, err := remote.NewClient(a.cfg.APIURL, a.cfg.APITimeout, a.logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid api url", err)
	}
	return c, nil
}

func (a *app) player() remote.Player {
	name := os.Getenv("USER")
	if name == "" {
		name = "anonymous"
	}
	return remote.Player{Username: name, FirstName: name, LanguageCode: a.cfg.Language}
}

// newEngine builds the quest engine, backed by the remote client when c is set.
func (a *app) newEngine(ctx context.Context, c *remote.Client, observers ...engine.Observer) (*engine.Engine, error) {
	var fallbackOpts []engine.FallbackOption
	if a.cfg.CosmeticGrants {
		seed, err := engine.NewRunSeed(a.userID)
		if err != nil {
			return nil, errors.Wrap(err, "derive run seed")
		}
		fallbackOpts = append(fallbackOpts, engine.WithCosmeticGrants(seed, cosmeticChance))
	}
	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithFallbackResolver(engine.NewFallbackResolver(fallbackOpts...)),
	}
	if c != nil {
		r := remote.NewResolver(c, a.player())
		opts = append(opts, engine.WithRemote(r), engine.WithStarter(r))
	}
	for _, o := range observers {
		opts = append(opts, engine.WithObserver(o))
	}
	return engine.New(ctx, a.userID, a.quests, opts...)
}

// visitor describes this player and process for analytics.
func (a *app) visitor(ctx context.Context) remote.Visitor {
	env := identity.CurrentEnvironment()
	v := remote.Visitor{
		UserID:      a.userID,
		Fingerprint: identity.Fingerprint(env),
		Session:     identity.NewSession(engine.SystemClock().Now()),
		Device:      identity.Device(env),
		Returning:   a.returning,
	}
	if t, ok := a.ids.FirstVisit(ctx); ok {
		v.FirstVisit = t
	}
	return v
}
