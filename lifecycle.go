package gantry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/logger"
)

// LifecyclePhase names a point in the application lifecycle where hooks run.
type LifecyclePhase string

const (
	// PhaseBeforeLoad runs before any module is loaded.
	PhaseBeforeLoad LifecyclePhase = "before_load"

	// PhaseAfterLoad runs after all modules are loaded and the container
	// has started.
	PhaseAfterLoad LifecyclePhase = "after_load"

	// PhaseBeforeRun runs before the HTTP server starts listening.
	PhaseBeforeRun LifecyclePhase = "before_run"

	// PhaseAfterRun runs after the HTTP server starts, in a background
	// goroutine.
	PhaseAfterRun LifecyclePhase = "after_run"

	// PhaseBeforeStop runs before teardown begins.
	PhaseBeforeStop LifecyclePhase = "before_stop"

	// PhaseAfterStop runs after teardown completes.
	PhaseAfterStop LifecyclePhase = "after_stop"
)

// LifecycleHook is a function called during a lifecycle phase.
type LifecycleHook func(ctx context.Context, app App) error

// LifecycleHookOptions configures a lifecycle hook.
type LifecycleHookOptions struct {
	// Name identifies the hook in logs and errors.
	Name string

	// Priority orders execution within a phase; higher runs first.
	// Equal priorities keep registration order.
	Priority int

	// ContinueOnError lets later hooks run even if this one fails.
	ContinueOnError bool
}

type lifecycleHookEntry struct {
	hook LifecycleHook
	opts LifecycleHookOptions
	seq  int
}

// lifecycleManager holds and executes hooks per phase.
type lifecycleManager struct {
	hooks  map[LifecyclePhase][]lifecycleHookEntry
	logger logger.Logger
	seq    int
	mu     sync.Mutex
}

func newLifecycleManager(log logger.Logger) *lifecycleManager {
	return &lifecycleManager{
		hooks:  make(map[LifecyclePhase][]lifecycleHookEntry),
		logger: log,
	}
}

func (m *lifecycleManager) register(phase LifecyclePhase, hook LifecycleHook, opts LifecycleHookOptions) error {
	if hook == nil {
		return errors.ErrLifecycleError(string(phase), fmt.Errorf("hook '%s' is nil", opts.Name))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.hooks[phase] = append(m.hooks[phase], lifecycleHookEntry{hook: hook, opts: opts, seq: m.seq})

	return nil
}

func (m *lifecycleManager) execute(ctx context.Context, phase LifecyclePhase, app App) error {
	m.mu.Lock()
	entries := make([]lifecycleHookEntry, len(m.hooks[phase]))
	copy(entries, m.hooks[phase])
	m.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].opts.Priority != entries[j].opts.Priority {
			return entries[i].opts.Priority > entries[j].opts.Priority
		}

		return entries[i].seq < entries[j].seq
	})

	for _, entry := range entries {
		if err := entry.hook(ctx, app); err != nil {
			m.logger.Error("lifecycle hook failed",
				logger.String("phase", string(phase)),
				logger.String("hook", entry.opts.Name),
				logger.Err(err),
			)

			if entry.opts.ContinueOnError {
				continue
			}

			return errors.ErrLifecycleError(string(phase),
				fmt.Errorf("hook '%s': %w", entry.opts.Name, err))
		}
	}

	return nil
}
