package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/scope"
	"github.com/wippyai/native-abi/slot"
	"github.com/wippyai/native-abi/value"
)

const scopeTag uint32 = 1

// Body is the code of a host closure. It runs in a fresh scope whose parent
// is the captured one. The args are released when the body returns; Copy
// whatever must outlive the call.
type Body func(cx value.Scope, args []value.Value) value.Value

// Host owns the interner, the scope tree, closure code and loaded modules.
type Host struct {
	interner *ident.Interner
	slots    *slot.Table
	scopes   *slot.Typed[*frame]
	bodies   map[value.Code]Body
	nextCode value.Code
	modules  []*module.Surface
	table    *capability.Table
	global   value.Scope
	closing  bool
}

// Option configures a Host.
type Option func(*Host)

// WithInterner shares an interner between hosts.
func WithInterner(in *ident.Interner) Option {
	return func(h *Host) {
		h.interner = in
	}
}

// New creates a host with an empty global scope.
func New(opts ...Option) *Host {
	h := &Host{
		slots:  slot.NewTable(),
		bodies: make(map[value.Code]Body),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.interner == nil {
		h.interner = ident.NewInterner()
	}
	h.scopes = slot.NewTyped[*frame](h.slots, scopeTag)
	h.slots.Subscribe(h)
	h.table = h.capabilities()
	h.global = h.NewScope(0)
	return h
}

// Table returns the capability table handed to modules.
func (h *Host) Table() *capability.Table {
	return h.table
}

// Intern canonicalizes name.
func (h *Host) Intern(name string) ident.Ident {
	return h.interner.InternString(name)
}

// Global returns the root scope.
func (h *Host) Global() value.Scope {
	return h.global
}

// Load bootstraps a module and keeps its surface under name.
func (h *Host) Load(name string, boot module.Bootstrap) (*module.Surface, error) {
	if _, ok := h.Module(name); ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindAlreadyInitialized).
			Detail("module %q already loaded", name).
			Build()
	}
	s, err := module.Load(name, boot, h.table)
	if err != nil {
		return nil, err
	}
	h.modules = append(h.modules, s)
	Logger().Debug("module loaded", zap.String("module", name))
	return s, nil
}

// Module returns a loaded module by name.
func (h *Host) Module(name string) (*module.Surface, bool) {
	for _, s := range h.modules {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Modules returns the loaded module names in load order.
func (h *Host) Modules() []string {
	names := make([]string, len(h.modules))
	for i, s := range h.modules {
		names[i] = s.Name()
	}
	return names
}

// Closure registers body as closure code and captures cx.
func (h *Host) Closure(cx value.Scope, body Body) (value.Func, error) {
	var fn value.Func
	err := protect(func() {
		if _, ok := h.frame(cx); !ok {
			h.fail("closure: unknown scope")
		}
		h.nextCode++
		h.bodies[h.nextCode] = body
		fn = value.LocalOf(scope.NewLocalFunc(h.table, h.nextCode, cx))
	})
	return fn, err
}

// OnSlotEvent implements slot.Observer.
func (h *Host) OnSlotEvent(e slot.Event) {
	if e.Tag != scopeTag {
		return
	}
	switch e.Type {
	case slot.EventStored:
		Logger().Debug("scope opened", zap.Uintptr("scope", uintptr(e.Handle)))
	case slot.EventReleased:
		Logger().Debug("scope torn down", zap.Uintptr("scope", uintptr(e.Handle)))
	}
}

// fail raises msg the way ReportError does.
func (h *Host) fail(msg string) {
	h.table.ReportError(msg)
}

// protect runs fn and turns an unwind into an error.
func protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(r)
		}
	}()
	fn()
	return nil
}
