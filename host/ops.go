package host

import (
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Func resolves an exported free function of a loaded module.
func (h *Host) Func(mod, name string) (value.Func, error) {
	s, ok := h.Module(mod)
	if !ok {
		return value.Func{}, errors.NotFound(errors.PhaseHost, "module", mod)
	}
	fn, ok := s.Func(h.Intern(name))
	if !ok {
		return value.Func{}, errors.NotFound(errors.PhaseHost, "function", mod+"."+name)
	}
	return value.NativeOf(fn), nil
}

// Call invokes fn in cx. Call takes ownership of args; whatever the callee
// does not take is released when it returns.
func (h *Host) Call(cx value.Scope, fn value.Value, args ...value.Value) (value.Value, error) {
	f, ok := fn.(value.Func)
	if !ok {
		value.Release(value.List(args))
		return nil, errors.TypeMismatch(errors.PhaseHost, []string{"call"}, value.KindFunc.String(), value.KindOf(fn).String())
	}
	var out value.Value
	err := protect(func() {
		switch {
		case f.Native != nil:
			out = h.native(cx, f.Native, args)
		case f.Local != nil:
			out = f.Local.Call(args...)
		case f.Extern != nil:
			panic(errors.Unsupported(errors.PhaseHost, "unresolved extern "+f.Extern.Library+":"+f.Extern.Symbol))
		default:
			panic(errors.InvalidInput(errors.PhaseHost, "empty function value"))
		}
	})
	return out, err
}

func (h *Host) native(cx value.Scope, fn value.NativeFunc, args []value.Value) value.Value {
	refs := value.Refs(args...)
	defer releaseRefs(refs)
	return fn(refs, cx)
}

func releaseRefs(refs []value.Ref) {
	for i := range refs {
		value.Release(refs[i].Take())
	}
}

// CallFunc resolves and calls an exported free function.
func (h *Host) CallFunc(cx value.Scope, mod, name string, args ...value.Value) (value.Value, error) {
	fn, err := h.Func(mod, name)
	if err != nil {
		value.Release(value.List(args))
		return nil, err
	}
	return h.Call(cx, fn, args...)
}

// CallStatic calls a static method of an exported class.
func (h *Host) CallStatic(cx value.Scope, mod, class, method string, args ...value.Value) (value.Value, error) {
	s, ok := h.Module(mod)
	if !ok {
		value.Release(value.List(args))
		return nil, errors.NotFound(errors.PhaseHost, "module", mod)
	}
	c, ok := s.Class(h.Intern(class))
	if !ok {
		value.Release(value.List(args))
		return nil, errors.NotFound(errors.PhaseHost, "class", mod+"."+class)
	}
	fn, ok := c.StaticMethod(h.Intern(method))
	if !ok {
		value.Release(value.List(args))
		return nil, errors.NotFound(errors.PhaseHost, "static method", class+"."+method)
	}
	var out value.Value
	err := protect(func() { out = h.native(cx, fn, args) })
	return out, err
}

// CallMethod calls an instance method with recv as the receiver. The method
// runs in a fresh scope under cx whose receiver slot is recv.
func (h *Host) CallMethod(cx value.Scope, recv value.Value, method string, args ...value.Value) (value.Value, error) {
	inst, ok := recv.(*value.Instance)
	if !ok {
		value.Release(value.List(args))
		return nil, errors.TypeMismatch(errors.PhaseHost, []string{method}, value.KindInstance.String(), value.KindOf(recv).String())
	}
	m, ok := inst.Class().Method(h.Intern(method))
	if !ok {
		value.Release(value.List(args))
		return nil, errors.NotFound(errors.PhaseHost, "method", inst.Class().Name()+"."+method)
	}
	var out value.Value
	err := protect(func() {
		ms := h.NewMethodScope(cx, &recv)
		defer h.exit(ms)
		refs := value.Refs(args...)
		defer releaseRefs(refs)
		out = m(inst, refs, ms)
	})
	return out, err
}

// GetField implements v.name.
func (h *Host) GetField(v value.Value, name string) (value.Value, error) {
	var out value.Value
	err := protect(func() {
		switch x := v.(type) {
		case *value.Instance:
			out = x.Class().Get(x, h.Intern(name))
		case value.Object:
			out = value.Uninit{}
			if f, ok := x[h.Intern(name)]; ok {
				out = value.Copy(f)
			}
		default:
			panic(mismatch(name, "object or instance", v))
		}
	})
	return out, err
}

// SetField implements v.name = x, taking ownership of x.
func (h *Host) SetField(v value.Value, name string, x value.Value) error {
	return protect(func() {
		switch o := v.(type) {
		case *value.Instance:
			o.Class().Set(o, h.Intern(name), x)
		case value.Object:
			id := h.Intern(name)
			old, had := o[id]
			o[id] = x
			if had {
				value.Release(old)
			}
		default:
			value.Release(x)
			panic(mismatch(name, "object or instance", v))
		}
	})
}

// Index implements v[key].
func (h *Host) Index(v value.Value, key value.Value) (value.Value, error) {
	var out value.Value
	err := protect(func() {
		switch x := v.(type) {
		case *value.Instance:
			k := value.Own(key)
			defer func() { value.Release(k.Take()) }()
			out = x.Class().IndexGet(x, &k)
		case value.List:
			out = value.Copy(x[h.position(key, len(x))])
		case value.Buffer:
			out = value.Uint(x[h.position(key, len(x))])
		case value.Object:
			out = value.Uninit{}
			if f, ok := x[h.fieldKey(key)]; ok {
				out = value.Copy(f)
			}
		default:
			panic(mismatch("index", "indexable", v))
		}
	})
	return out, err
}

// SetIndex implements v[key] = x, taking ownership of x.
func (h *Host) SetIndex(v value.Value, key value.Value, x value.Value) error {
	return protect(func() {
		switch o := v.(type) {
		case *value.Instance:
			k := value.Own(key)
			defer func() { value.Release(k.Take()) }()
			o.Class().IndexSet(o, &k, x)
		case value.List:
			i := h.position(key, len(o))
			old := o[i]
			o[i] = x
			value.Release(old)
		case value.Buffer:
			b, ok := x.(value.Uint)
			if !ok || b > 0xff {
				panic(mismatch("index", "byte", x))
			}
			o[h.position(key, len(o))] = byte(b)
		case value.Object:
			id := h.fieldKey(key)
			old, had := o[id]
			o[id] = x
			if had {
				value.Release(old)
			}
		default:
			value.Release(x)
			panic(mismatch("index", "indexable", v))
		}
	})
}

// Next advances an iterable instance once.
func (h *Host) Next(v value.Value) (value.Value, error) {
	inst, ok := v.(*value.Instance)
	if !ok {
		return nil, mismatch("next", value.KindInstance.String(), v)
	}
	var out value.Value
	err := protect(func() { out = inst.Class().Next(inst) })
	return out, err
}

// Iterate runs fn over the items of a list or an iterable instance until the
// items run out or fn returns false. Each item is released after fn returns.
func (h *Host) Iterate(v value.Value, fn func(value.Value) bool) error {
	return protect(func() {
		switch x := v.(type) {
		case value.List:
			for _, e := range x {
				item := value.Copy(e)
				more := fn(item)
				value.Release(item)
				if !more {
					return
				}
			}
		case *value.Instance:
			c := x.Class()
			for {
				item := c.Next(x)
				if value.IsIterEnd(item) {
					return
				}
				more := fn(item)
				value.Release(item)
				if !more {
					return
				}
			}
		default:
			panic(mismatch("iterate", "iterable", v))
		}
	})
}

// Collect gathers every item Iterate would visit. The caller owns the result.
func (h *Host) Collect(v value.Value) ([]value.Value, error) {
	var items []value.Value
	err := h.Iterate(v, func(item value.Value) bool {
		items = append(items, value.Copy(item))
		return true
	})
	if err != nil {
		value.Release(value.List(items))
		return nil, err
	}
	return items, nil
}

// Copy implements by-value assignment.
func (h *Host) Copy(v value.Value) (value.Value, error) {
	var out value.Value
	err := protect(func() { out = value.Copy(v) })
	return out, err
}

// Drop destroys v.
func (h *Host) Drop(v value.Value) error {
	return protect(func() { value.Release(v) })
}

// String implements string conversion.
func (h *Host) String(v value.Value) (string, error) {
	var out string
	err := protect(func() { out = value.Format(v) })
	return out, err
}

func (h *Host) position(key value.Value, n int) int {
	var i int64
	switch k := key.(type) {
	case value.Int:
		i = int64(k)
	case value.Uint:
		if uint64(k) > uint64(n) {
			i = int64(n)
		} else {
			i = int64(k)
		}
	default:
		panic(mismatch("index", "integer", key))
	}
	if i < 0 || i >= int64(n) {
		panic(errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path("index").
			Value(key).
			Detail("index %d out of range [0, %d)", i, n).
			Build())
	}
	return int(i)
}

func (h *Host) fieldKey(key value.Value) ident.Ident {
	s, ok := key.(value.Str)
	if !ok {
		panic(mismatch("index", value.KindStr.String(), key))
	}
	return h.Intern(string(s))
}

func mismatch(path, want string, got value.Value) *errors.Error {
	return errors.TypeMismatch(errors.PhaseHost, []string{path}, want, value.KindOf(got).String())
}
