package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/audit"
	"github.com/keepsake-ai/keepsake/internal/classifier"
	"github.com/keepsake-ai/keepsake/internal/config"
	"github.com/keepsake-ai/keepsake/internal/engine"
	"github.com/keepsake-ai/keepsake/internal/llm"
	"github.com/keepsake-ai/keepsake/internal/pii"
	"github.com/keepsake-ai/keepsake/internal/router"
	"github.com/keepsake-ai/keepsake/internal/scoring"
	"github.com/keepsake-ai/keepsake/internal/storage"
	memstore "github.com/keepsake-ai/keepsake/internal/storage/memory"
	"github.com/keepsake-ai/keepsake/internal/storage/postgres"
	"github.com/keepsake-ai/keepsake/internal/storage/sqlite"
)

// app holds the wired engine and everything that needs closing when a
// command finishes.
type app struct {
	engine  *engine.Engine
	log     zerolog.Logger
	closers []io.Closer
	audit   *audit.Logger
}

// newApp loads configuration from the environment and wires the engine.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().
		Timestamp().
		Str("service", cfg.Service.Name).
		Logger()

	a := &app{log: log}

	generator, err := llm.NewTextGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	var scorer scoring.Scorer
	var detector pii.Detector
	if generator != nil {
		if scorer, err = scoring.NewLLMScorer(generator); err != nil {
			return nil, err
		}
		if detector, err = pii.NewLLMDetector(generator); err != nil {
			return nil, err
		}
	} else {
		scorer = scoring.NewStaticScorer()
		detector = pii.NewRuleDetector()
	}

	rules := classifier.DefaultRules()
	if cfg.Service.ClassifierRulesPath != "" {
		if rules, err = classifier.LoadRules(cfg.Service.ClassifierRulesPath); err != nil {
			return nil, err
		}
	}

	shortTerm, auditSink, err := a.buildShortTerm(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	longTerm, err := a.buildLongTerm(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	rt, err := router.New(shortTerm, longTerm, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.audit = audit.NewLogger(auditSink, log, 256)

	eng, err := engine.New(engine.Options{
		Config:   cfg,
		Scorer:   scorer,
		Detector: detector,
		Rules:    rules,
		Router:   rt,
		Audit:    a.audit,
		Log:      log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = eng
	return a, nil
}

// buildShortTerm constructs the short-term tier and the audit sink. The
// sqlite backend shares one database file between memories and the audit
// trail; the memory backend audits to the structured log.
func (a *app) buildShortTerm(cfg *config.Config) (storage.ShortTermStore, audit.Sink, error) {
	switch cfg.ShortTerm.Backend {
	case "sqlite":
		db, err := sqlite.Open(cfg.ShortTerm.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := sqlite.WrapDB(db, cfg.ShortTerm.MaxPerUser, cfg.ShortTerm.TTL)
		a.closers = append(a.closers, db)
		return store, sqlite.WrapAuditDB(db), nil
	default:
		store := memstore.NewShortTermStore(cfg.ShortTerm.MaxPerUser, cfg.ShortTerm.TTL)
		return store, audit.NewLogSink(a.log), nil
	}
}

func (a *app) buildLongTerm(cfg *config.Config) (storage.LongTermStore, error) {
	switch cfg.LongTerm.Backend {
	case "postgres":
		embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewLongTermStore(cfg.LongTerm.PostgresDSN, embedder, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return memstore.NewLongTermStore(), nil
	}
}

// close flushes the audit trail and releases storage handles.
func (a *app) close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Error().Err(err).Msg("failed to flush audit trail")
		}
		if n := a.audit.Dropped(); n > 0 {
			a.log.Warn().Uint64("dropped", n).Msg("audit events were dropped")
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Error().Err(err).Msg("failed to close storage")
		}
	}
}

// withApp wires the engine, runs fn, and tears everything down afterwards.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("keepsake: %w", err)
	}
	defer a.close()
	return fn(a)
}
