// Package engine orchestrates the memory lifecycle: each incoming memory is
// scored, screened for PII, classified into a storage tier, gated through
// the consent workflow when needed, and routed into storage with an audit
// trail emitted at every checkpoint.
package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/audit"
	"github.com/keepsake-ai/keepsake/internal/classifier"
	"github.com/keepsake-ai/keepsake/internal/config"
	"github.com/keepsake-ai/keepsake/internal/pii"
	"github.com/keepsake-ai/keepsake/internal/router"
	"github.com/keepsake-ai/keepsake/internal/scoring"
)

// Engine is the single entry point for the memory lifecycle. All methods are
// safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	scorer   scoring.Scorer
	detector pii.Detector
	rules    classifier.Rules
	router   *router.Router
	audit    *audit.Logger
	digest   *digester
	log      zerolog.Logger

	pending *pendingRegistry

	// locks serializes consent resolution per memory item so concurrent
	// decisions for the same item apply one at a time.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Options carries the engine's collaborators. All fields except Digest are
// required.
type Options struct {
	Config   *config.Config
	Scorer   scoring.Scorer
	Detector pii.Detector
	Rules    classifier.Rules
	Router   *router.Router
	Audit    *audit.Logger
	Log      zerolog.Logger
}

// New validates the options and builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("engine: config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Scorer == nil {
		return nil, fmt.Errorf("engine: scorer is required")
	}
	if opts.Detector == nil {
		return nil, fmt.Errorf("engine: detector is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("engine: router is required")
	}
	if opts.Audit == nil {
		return nil, fmt.Errorf("engine: audit logger is required")
	}

	return &Engine{
		cfg:      opts.Config,
		scorer:   opts.Scorer,
		detector: opts.Detector,
		rules:    opts.Rules,
		router:   opts.Router,
		audit:    opts.Audit,
		digest:   newDigester(opts.Config.Digest),
		log:      opts.Log.With().Str("component", "engine").Logger(),
		pending:  newPendingRegistry(),
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// itemLock returns the mutex guarding one memory item's consent state.
func (e *Engine) itemLock(userID, memoryID string) *sync.Mutex {
	key := userID + "/" + memoryID
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[key] = mu
	}
	return mu
}

// releaseLock drops the per-item mutex once the item can no longer be
// resolved (deleted or cleared), keeping the lock map from growing without
// bound.
func (e *Engine) releaseLock(userID, memoryID string) {
	key := userID + "/" + memoryID
	e.locksMu.Lock()
	delete(e.locks, key)
	e.locksMu.Unlock()
}
