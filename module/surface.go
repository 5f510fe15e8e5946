package module

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/class"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Surface is the frozen export set of a loaded module.
type Surface struct {
	name    string
	funcs   []FuncEntry
	classes []ClassEntry
}

// Load runs boot once against t and freezes what it exported. A bootstrap
// that panics or reports an error yields an error and no surface.
func Load(name string, boot Bootstrap, t *capability.Table) (*Surface, error) {
	if boot == nil {
		return nil, errors.Load("module "+name+": nil bootstrap", nil)
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Load("module "+name, err)
	}

	ex := newExports(t)
	if err := run(name, boot, t, ex); err != nil {
		Logger().Debug("module bootstrap failed", zap.String("module", name), zap.Error(err))
		return nil, err
	}
	ex.frozen = true

	Logger().Debug("module bootstrapped",
		zap.String("module", name),
		zap.Int("funcs", len(ex.funcs)),
		zap.Int("classes", len(ex.classes)),
	)

	return &Surface{
		name:    name,
		funcs:   ex.funcs,
		classes: ex.classes,
	}, nil
}

func run(name string, boot Bootstrap, t *capability.Table, ex *Exports) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cause := errors.FromPanic(r)
		err = errors.New(errors.PhaseBootstrap, cause.Kind).
			Detail("module %s", name).
			Cause(cause).
			Build()
	}()
	boot(t, ex)
	return nil
}

// Name returns the module name given to Load.
func (s *Surface) Name() string {
	return s.name
}

// Func resolves an exported free function. Duplicates resolve to the first.
func (s *Surface) Func(name ident.Ident) (value.NativeFunc, bool) {
	for _, f := range s.funcs {
		if f.Name == name {
			return f.Fn, true
		}
	}
	return nil, false
}

// Class resolves an exported class by name.
func (s *Surface) Class(name ident.Ident) (*class.Class, bool) {
	for _, c := range s.classes {
		if c.Name == name {
			return c.Class, true
		}
	}
	return nil, false
}

// Funcs returns the exported functions in registration order.
func (s *Surface) Funcs() []FuncEntry {
	return append([]FuncEntry(nil), s.funcs...)
}

// Classes returns the exported classes in registration order.
func (s *Surface) Classes() []ClassEntry {
	return append([]ClassEntry(nil), s.classes...)
}
