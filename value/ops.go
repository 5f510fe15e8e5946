package value

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Copy returns a deep copy of v, as the host does on assignment and on
// by-value argument passing.
func Copy(v Value) Value {
	switch x := v.(type) {
	case nil:
		return Uninit{}
	case Buffer:
		if x == nil {
			return Buffer(nil)
		}
		return append(Buffer(make([]byte, 0, len(x))), x...)
	case List:
		if x == nil {
			return List(nil)
		}
		out := make(List, len(x))
		for i, e := range x {
			out[i] = Copy(e)
		}
		return out
	case Object:
		if x == nil {
			return Object(nil)
		}
		out := make(Object, len(x))
		for k, e := range x {
			out[k] = Copy(e)
		}
		return out
	case Func:
		if x.Local != nil {
			return Func{Local: x.Local.Clone()}
		}
		if x.Extern != nil {
			ext := *x.Extern
			return Func{Extern: &ext}
		}
		return x
	case *Instance:
		return x.classFor("clone").Clone(x)
	default:
		return v
	}
}

// Release destroys v: instances run their Drop hook, closures give back
// their scope reference, containers release their elements.
func Release(v Value) {
	switch x := v.(type) {
	case List:
		for _, e := range x {
			Release(e)
		}
	case Object:
		for _, e := range x {
			Release(e)
		}
	case Func:
		if x.Local != nil {
			x.Local.Release()
		}
	case *Instance:
		x.classFor("drop").Drop(x)
	}
}

// Format renders v the way the host's string conversion operator does.
func Format(v Value) string {
	var b strings.Builder
	format(&b, v, false)
	return b.String()
}

func format(b *strings.Builder, v Value, nested bool) {
	switch x := v.(type) {
	case nil, Uninit:
		b.WriteString("uninit")
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Uint:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case Float:
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case Bool:
		b.WriteString(strconv.FormatBool(bool(x)))
	case Str:
		if nested {
			b.WriteString(strconv.Quote(string(x)))
		} else {
			b.WriteString(string(x))
		}
	case Buffer:
		b.WriteString("Buffer[")
		b.WriteString(hex.EncodeToString(x))
		b.WriteByte(']')
	case List:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e, true)
		}
		b.WriteByte(']')
	case Object:
		if len(x) == 0 {
			b.WriteString("{}")
			return
		}
		// Field order carries no meaning; sort for stable output.
		keys := make([]string, 0, len(x))
		vals := make(map[string]Value, len(x))
		for k, e := range x {
			keys = append(keys, k.String())
			vals[k.String()] = e
		}
		sort.Strings(keys)
		b.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			format(b, vals[k], true)
		}
		b.WriteString(" }")
	case Func:
		switch {
		case x.Native != nil:
			b.WriteString("<native fn>")
		case x.Local != nil:
			b.WriteString("<closure>")
		case x.Extern != nil:
			b.WriteString("<extern ")
			b.WriteString(x.Extern.Library)
			b.WriteByte(':')
			b.WriteString(x.Extern.Symbol)
			b.WriteByte('>')
		default:
			b.WriteString("<fn>")
		}
	case *Instance:
		b.WriteString(x.classFor("format").String(x))
	case Symbol:
		b.WriteString("Symbol(")
		b.WriteString(x.String())
		b.WriteByte(')')
	default:
		b.WriteString("<unknown>")
	}
}
