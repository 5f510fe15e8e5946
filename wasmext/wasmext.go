// Package wasmext loads core WebAssembly modules as extension modules.
//
// Every exported wasm function whose parameters and results are numeric
// becomes a free function of the extension. Arguments are converted from
// Int, Uint, Float and Bool; i32 and i64 results come back as Int, f32 and
// f64 results as Float, and multiple results as a List. Modules with
// imports are rejected: the host supplies no wasm imports.
package wasmext

import (
	"context"
	"math"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/value"
)

// Config holds runtime configuration.
type Config struct {
	// MemoryLimitPages caps linear memory per instance in 64KB pages.
	// 0 keeps wazero's default.
	MemoryLimitPages uint32
}

// NewRuntime creates a wazero runtime for extension modules.
func NewRuntime(ctx context.Context, cfg *Config) wazero.Runtime {
	rc := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return wazero.NewRuntimeWithConfig(ctx, rc)
}

type export struct {
	name string
	fn   api.Function
	def  api.FunctionDefinition
}

// Module is an instantiated wasm module waiting to be bootstrapped.
type Module struct {
	ctx      context.Context
	caps     capability.Binding
	name     string
	compiled wazero.CompiledModule
	inst     api.Module
	exports  []export
	skipped  []string
}

// Compile compiles and instantiates wasm under name. Calls into the module
// run under ctx.
func Compile(ctx context.Context, rt wazero.Runtime, name string, wasm []byte) (*Module, error) {
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile wasm module "+name, err)
	}
	if imports := compiled.ImportedFunctions(); len(imports) > 0 {
		mod, fn, _ := imports[0].Import()
		_ = compiled.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path(name).
			Detail("wasm import %s.%s cannot be satisfied", mod, fn).
			Build()
	}

	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Load("instantiate wasm module "+name, err)
	}

	m := &Module{
		ctx:      ctx,
		name:     name,
		compiled: compiled,
		inst:     inst,
	}

	defs := compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for n := range defs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		def := defs[n]
		if !numeric(def.ParamTypes()) || !numeric(def.ResultTypes()) {
			m.skipped = append(m.skipped, n)
			Logger().Debug("wasm export skipped", zap.String("module", name), zap.String("export", n))
			continue
		}
		m.exports = append(m.exports, export{name: n, fn: inst.ExportedFunction(n), def: def})
	}
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Exports returns the names of the functions Bootstrap will export.
func (m *Module) Exports() []string {
	out := make([]string, len(m.exports))
	for i, e := range m.exports {
		out[i] = e.name
	}
	return out
}

// Skipped returns exported functions with non-numeric signatures.
func (m *Module) Skipped() []string {
	return append([]string(nil), m.skipped...)
}

// Bootstrap is the module's entry point.
func (m *Module) Bootstrap(t *capability.Table, ex *module.Exports) {
	m.caps.MustBind(t)
	for _, e := range m.exports {
		ex.Func(e.name, m.native(e))
		Logger().Debug("wasm export bound",
			zap.String("module", m.name),
			zap.String("export", e.name),
			zap.Int("params", len(e.def.ParamTypes())),
			zap.Int("results", len(e.def.ResultTypes())),
		)
	}
}

// Close releases the instance and its compiled code.
func (m *Module) Close(ctx context.Context) error {
	if err := m.inst.Close(ctx); err != nil {
		return err
	}
	return m.compiled.Close(ctx)
}

func (m *Module) native(e export) value.NativeFunc {
	params := e.def.ParamTypes()
	results := e.def.ResultTypes()
	member := m.name + "." + e.name

	return func(args []value.Ref, _ value.Scope) value.Value {
		if len(args) != len(params) {
			panic(errors.Arity(errors.PhaseDispatch, member, len(params), len(args)))
		}
		stack := make([]uint64, len(params))
		for i, t := range params {
			stack[i] = encode(member, i, t, args[i].Get())
		}

		out, err := e.fn.Call(m.ctx, stack...)
		if err != nil {
			panic(errors.New(errors.PhaseDispatch, errors.KindPanic).
				Member(member).
				Detail("wasm trap").
				Cause(err).
				Build())
		}

		switch len(results) {
		case 0:
			return value.Uninit{}
		case 1:
			return decode(results[0], out[0])
		}
		list := make(value.List, len(results))
		for i, t := range results {
			list[i] = decode(t, out[i])
		}
		return list
	}
}

func numeric(types []api.ValueType) bool {
	for _, t := range types {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

func encode(member string, i int, t api.ValueType, v value.Value) uint64 {
	switch t {
	case api.ValueTypeI32:
		n, ok := integer(v)
		if !ok || n < math.MinInt32 || n > math.MaxUint32 {
			panic(argError(member, i, t, v))
		}
		return uint64(uint32(n))
	case api.ValueTypeI64:
		if u, ok := v.(value.Uint); ok {
			return uint64(u)
		}
		n, ok := integer(v)
		if !ok {
			panic(argError(member, i, t, v))
		}
		return uint64(n)
	case api.ValueTypeF32:
		f, ok := float(v)
		if !ok {
			panic(argError(member, i, t, v))
		}
		return api.EncodeF32(float32(f))
	default:
		f, ok := float(v)
		if !ok {
			panic(argError(member, i, t, v))
		}
		return api.EncodeF64(f)
	}
}

func decode(t api.ValueType, raw uint64) value.Value {
	switch t {
	case api.ValueTypeI32:
		return value.Int(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return value.Int(int64(raw))
	case api.ValueTypeF32:
		return value.Float(api.DecodeF32(raw))
	default:
		return value.Float(api.DecodeF64(raw))
	}
}

func integer(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.Int:
		return int64(x), true
	case value.Uint:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case value.Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func float(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Float:
		return float64(x), true
	case value.Int:
		return float64(x), true
	case value.Uint:
		return float64(x), true
	}
	return 0, false
}

func argError(member string, i int, t api.ValueType, v value.Value) *errors.Error {
	return errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
		Member(member).
		Value(v).
		Detail("argument %d: cannot pass %s as %s", i, value.KindOf(v).String(), api.ValueTypeName(t)).
		Build()
}
