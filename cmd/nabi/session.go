package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/native-abi/config"
	"github.com/wippyai/native-abi/host"
	"github.com/wippyai/native-abi/internal/sample"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/value"
	"github.com/wippyai/native-abi/wasmext"
)

// builtins returns a fresh entry point per session; a module instance binds once.
var builtins = map[string]func() module.Bootstrap{
	config.ModuleSample: func() module.Bootstrap { return sample.New().Bootstrap },
}

// session is a host with every configured module loaded.
type session struct {
	h    *host.Host
	rt   wazero.Runtime
	wasm []*wasmext.Module
}

// export is one callable entry of a loaded module.
type export struct {
	module string
	class  string
	name   string
	kind   string // func, static or method
}

func (e export) target() string {
	if e.class != "" {
		return e.module + "." + e.class + "." + e.name
	}
	return e.module + "." + e.name
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s := &session{h: host.New()}

	for _, name := range cfg.Modules {
		boot, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("unknown module %q", name)
		}
		if _, err := s.h.Load(name, boot()); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	if len(cfg.Wasm) > 0 {
		s.rt = wasmext.NewRuntime(ctx, &wasmext.Config{MemoryLimitPages: cfg.MemoryLimitPages})
	}
	for _, w := range cfg.Wasm {
		data, err := os.ReadFile(w.Path)
		if err != nil {
			s.close(ctx)
			return nil, fmt.Errorf("read %s: %w", w.Path, err)
		}
		m, err := wasmext.Compile(ctx, s.rt, w.Name, data)
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		s.wasm = append(s.wasm, m)
		if _, err := s.h.Load(w.Name, m.Bootstrap); err != nil {
			s.close(ctx)
			return nil, fmt.Errorf("load %s: %w", w.Name, err)
		}
	}
	return s, nil
}

func (s *session) close(ctx context.Context) {
	_ = s.h.Close()
	for _, m := range s.wasm {
		_ = m.Close(ctx)
	}
	if s.rt != nil {
		_ = s.rt.Close(ctx)
	}
}

// exports lists every function, static method and method, sorted.
func (s *session) exports() []export {
	var out []export
	for _, name := range s.h.Modules() {
		mod, _ := s.h.Module(name)
		seen := make(map[string]bool)
		for _, f := range mod.Funcs() {
			if seen[f.Name.String()] {
				continue
			}
			seen[f.Name.String()] = true
			out = append(out, export{module: name, name: f.Name.String(), kind: "func"})
		}
		for _, c := range mod.Classes() {
			cls := c.Class
			statics := make(map[string]bool)
			for _, m := range cls.StaticMethods() {
				if !statics[m.Name.String()] {
					statics[m.Name.String()] = true
					out = append(out, export{module: name, class: cls.Name(), name: m.Name.String(), kind: "static"})
				}
			}
			methods := make(map[string]bool)
			for _, m := range cls.Methods() {
				if !methods[m.Name.String()] {
					methods[m.Name.String()] = true
					out = append(out, export{module: name, class: cls.Name(), name: m.Name.String(), kind: "method"})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].target() < out[j].target() })
	return out
}

// call runs "module.fn" or "module.Class.static" in the global scope.
func (s *session) call(target string, args []value.Value) (value.Value, error) {
	parts := strings.Split(target, ".")
	switch len(parts) {
	case 2:
		return s.h.CallFunc(s.h.Global(), parts[0], parts[1], args...)
	case 3:
		return s.h.CallStatic(s.h.Global(), parts[0], parts[1], parts[2], args...)
	default:
		return nil, fmt.Errorf("target %q: want module.fn or module.Class.method", target)
	}
}

// define binds name=value pairs in the global scope.
func (s *session) define(vars []string) error {
	for _, kv := range vars {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return fmt.Errorf("variable %q: want name=value", kv)
		}
		if err := s.h.Define(s.h.Global(), name, parseArg(raw)); err != nil {
			return err
		}
	}
	return nil
}

// parseArg reads an integer, float, bool or string literal.
func parseArg(s string) value.Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(n)
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return value.Uint(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	if s == "true" || s == "false" {
		return value.Bool(s == "true")
	}
	if u, err := strconv.Unquote(s); err == nil {
		return value.Str(u)
	}
	return value.Str(s)
}

func parseArgs(fields []string) []value.Value {
	args := make([]value.Value, len(fields))
	for i, f := range fields {
		args[i] = parseArg(f)
	}
	return args
}
