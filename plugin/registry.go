package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/vault/event"
)

// DefaultTimeout bounds each plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onDeposit          []OnDeposit
	onWithdraw         []OnWithdraw
	onOperatorWithdraw []OnOperatorWithdraw
	onYieldAccumulated []OnYieldAccumulated
	onRateUpdated      []OnRateUpdated
	onFeeUpdated       []OnFeeUpdated
	onPaused           []OnPaused
	onUnpaused         []OnUnpaused
	onOperationFailed  []OnOperationFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets how long a single plugin call may run.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdraw); ok {
		r.onWithdraw = append(r.onWithdraw, v)
	}
	if v, ok := p.(OnOperatorWithdraw); ok {
		r.onOperatorWithdraw = append(r.onOperatorWithdraw, v)
	}
	if v, ok := p.(OnYieldAccumulated); ok {
		r.onYieldAccumulated = append(r.onYieldAccumulated, v)
	}
	if v, ok := p.(OnRateUpdated); ok {
		r.onRateUpdated = append(r.onRateUpdated, v)
	}
	if v, ok := p.(OnFeeUpdated); ok {
		r.onFeeUpdated = append(r.onFeeUpdated, v)
	}
	if v, ok := p.(OnPaused); ok {
		r.onPaused = append(r.onPaused, v)
	}
	if v, ok := p.(OnUnpaused); ok {
		r.onUnpaused = append(r.onUnpaused, v)
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.onOperationFailed = append(r.onOperationFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnDeposit)(nil)).Elem(), "OnDeposit"},
	{reflect.TypeOf((*OnWithdraw)(nil)).Elem(), "OnWithdraw"},
	{reflect.TypeOf((*OnOperatorWithdraw)(nil)).Elem(), "OnOperatorWithdraw"},
	{reflect.TypeOf((*OnYieldAccumulated)(nil)).Elem(), "OnYieldAccumulated"},
	{reflect.TypeOf((*OnRateUpdated)(nil)).Elem(), "OnRateUpdated"},
	{reflect.TypeOf((*OnFeeUpdated)(nil)).Elem(), "OnFeeUpdated"},
	{reflect.TypeOf((*OnPaused)(nil)).Elem(), "OnPaused"},
	{reflect.TypeOf((*OnUnpaused)(nil)).Elem(), "OnUnpaused"},
	{reflect.TypeOf((*OnOperationFailed)(nil)).Elem(), "OnOperationFailed"},
}

// implementedInterfaces returns the hook names p implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, v interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, v)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// Emit routes a committed event to the hook matching its kind.
func (r *Registry) Emit(ctx context.Context, evt *event.Event) {
	if evt == nil {
		return
	}

	r.mu.RLock()
	var (
		hook  string
		calls []boundCall
	)
	switch evt.Kind {
	case event.KindDeposit:
		hook, calls = "OnDeposit", bind(r.onDeposit, func(p OnDeposit) error { return p.OnDeposit(ctx, evt) })
	case event.KindWithdraw:
		hook, calls = "OnWithdraw", bind(r.onWithdraw, func(p OnWithdraw) error { return p.OnWithdraw(ctx, evt) })
	case event.KindOperatorWithdraw:
		hook, calls = "OnOperatorWithdraw", bind(r.onOperatorWithdraw, func(p OnOperatorWithdraw) error { return p.OnOperatorWithdraw(ctx, evt) })
	case event.KindYieldAccumulated:
		hook, calls = "OnYieldAccumulated", bind(r.onYieldAccumulated, func(p OnYieldAccumulated) error { return p.OnYieldAccumulated(ctx, evt) })
	case event.KindRateUpdated:
		hook, calls = "OnRateUpdated", bind(r.onRateUpdated, func(p OnRateUpdated) error { return p.OnRateUpdated(ctx, evt) })
	case event.KindFeeUpdated:
		hook, calls = "OnFeeUpdated", bind(r.onFeeUpdated, func(p OnFeeUpdated) error { return p.OnFeeUpdated(ctx, evt) })
	case event.KindPaused:
		hook, calls = "OnPaused", bind(r.onPaused, func(p OnPaused) error { return p.OnPaused(ctx, evt) })
	case event.KindUnpaused:
		hook, calls = "OnUnpaused", bind(r.onUnpaused, func(p OnUnpaused) error { return p.OnUnpaused(ctx, evt) })
	default:
		r.mu.RUnlock()
		r.logger.Warn("plugin emit: unknown event kind", "kind", string(evt.Kind))
		return
	}
	r.mu.RUnlock()

	for _, c := range calls {
		r.dispatch(ctx, c.plugin, hook, c.fn)
	}
}

// EmitOperationFailed calls OnOperationFailed for all plugins that implement it.
func (r *Registry) EmitOperationFailed(ctx context.Context, kind event.Kind, actor string, opErr error) {
	r.mu.RLock()
	plugins := r.onOperationFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnOperationFailed", func() error {
			return p.OnOperationFailed(ctx, kind, actor, opErr)
		})
	}
}

type boundCall struct {
	plugin string
	fn     func() error
}

// bind pairs every plugin in hooks with its invocation.
func bind[T Plugin](hooks []T, call func(T) error) []boundCall {
	out := make([]boundCall, 0, len(hooks))
	for _, p := range hooks {
		out = append(out, boundCall{plugin: p.Name(), fn: func() error { return call(p) }})
	}
	return out
}

// dispatch runs fn under the registry timeout and logs a failure.
// Plugin errors never reach the caller.
func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the custody pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
