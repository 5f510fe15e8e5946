package value

import (
	"github.com/wippyai/native-abi/ident"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUninit Kind = iota
	KindInt
	KindUint
	KindFloat
	KindBool
	KindFunc
	KindStr
	KindBuffer
	KindList
	KindObject
	KindInstance
	KindSymbol
)

var kindNames = [...]string{
	KindUninit:   "uninit",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindBool:     "bool",
	KindFunc:     "func",
	KindStr:      "str",
	KindBuffer:   "buffer",
	KindList:     "list",
	KindObject:   "object",
	KindInstance: "instance",
	KindSymbol:   "symbol",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is any runtime value carried across the boundary.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Uninit struct{}
	Int    int64
	Uint   uint64
	Float  float64
	Bool   bool
	Str    string
	Buffer []byte
	List   []Value
	Object map[ident.Ident]Value
)

func (Uninit) Kind() Kind { return KindUninit }
func (Int) Kind() Kind    { return KindInt }
func (Uint) Kind() Kind   { return KindUint }
func (Float) Kind() Kind  { return KindFloat }
func (Bool) Kind() Kind   { return KindBool }
func (Str) Kind() Kind    { return KindStr }
func (Buffer) Kind() Kind { return KindBuffer }
func (List) Kind() Kind   { return KindList }
func (Object) Kind() Kind { return KindObject }

func (Uninit) isValue() {}
func (Int) isValue()    {}
func (Uint) isValue()   {}
func (Float) isValue()  {}
func (Bool) isValue()   {}
func (Str) isValue()    {}
func (Buffer) isValue() {}
func (List) isValue()   {}
func (Object) isValue() {}

// Symbol is a host-reserved marker value.
type Symbol uint32

const (
	// IterEnd is returned by an iterator when it is exhausted.
	IterEnd Symbol = iota + 1
	// Reserved marks slots the host keeps for itself.
	Reserved
)

func (Symbol) Kind() Kind { return KindSymbol }
func (Symbol) isValue()   {}

func (s Symbol) String() string {
	switch s {
	case IterEnd:
		return "IterEnd"
	case Reserved:
		return "Reserved"
	default:
		return "Symbol"
	}
}

// IsIterEnd reports whether v is the iteration sentinel.
func IsIterEnd(v Value) bool {
	s, ok := v.(Symbol)
	return ok && s == IterEnd
}

// KindOf returns the kind of v, treating nil as Uninit.
func KindOf(v Value) Kind {
	if v == nil {
		return KindUninit
	}
	return v.Kind()
}

// orUninit normalizes a nil interface to Uninit.
func orUninit(v Value) Value {
	if v == nil {
		return Uninit{}
	}
	return v
}
