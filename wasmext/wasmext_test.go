package wasmext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/host"
	"github.com/wippyai/native-abi/value"
)

// add(i64, i64) -> i64 and half(f64) -> f64
var arith = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0c, 0x02, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e, 0x60, 0x01, 0x7c, 0x01, 0x7c,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x07, 0x0e, 0x02, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, 0x04, 0x68, 0x61, 0x6c, 0x66, 0x00, 0x01,
	0x0a, 0x18, 0x02,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
	0x0e, 0x00, 0x20, 0x00, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xe0, 0x3f, 0xa2, 0x0b,
}

// imports env.f
var needsImport = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x02, 0x09, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x01, 0x66, 0x00, 0x00,
}

func loadArith(t *testing.T) *host.Host {
	t.Helper()
	ctx := context.Background()
	rt := NewRuntime(ctx, &Config{MemoryLimitPages: 16})
	t.Cleanup(func() { _ = rt.Close(ctx) })

	m, err := Compile(ctx, rt, "arith", arith)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(ctx) })
	assert.Equal(t, "arith", m.Name())
	assert.Equal(t, []string{"add", "half"}, m.Exports())
	assert.Empty(t, m.Skipped())

	h := host.New()
	_, err = h.Load("arith", m.Bootstrap)
	require.NoError(t, err)
	return h
}

func TestCall(t *testing.T) {
	h := loadArith(t)
	cx := h.Global()

	out, err := h.CallFunc(cx, "arith", "add", value.Int(40), value.Uint(2))
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), out)

	out, err = h.CallFunc(cx, "arith", "add", value.Int(-5), value.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, value.Int(-4), out)

	out, err = h.CallFunc(cx, "arith", "half", value.Float(5))
	require.NoError(t, err)
	assert.Equal(t, value.Float(2.5), out)

	out, err = h.CallFunc(cx, "arith", "half", value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, value.Float(1.5), out)
}

func TestCall_Mismatch(t *testing.T) {
	h := loadArith(t)
	cx := h.Global()

	_, err := h.CallFunc(cx, "arith", "add", value.Int(1))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindReported))
	assert.Contains(t, err.Error(), "expected 2 argument(s), got 1")

	_, err = h.CallFunc(cx, "arith", "half", value.Str("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot pass str as f64")
}

func TestCompile_RejectsImports(t *testing.T) {
	ctx := context.Background()
	rt := NewRuntime(ctx, nil)
	defer rt.Close(ctx)

	_, err := Compile(ctx, rt, "imp", needsImport)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
	assert.Contains(t, err.Error(), "env.f")
}

func TestCompile_Invalid(t *testing.T) {
	ctx := context.Background()
	rt := NewRuntime(ctx, nil)
	defer rt.Close(ctx)

	_, err := Compile(ctx, rt, "junk", []byte("not wasm"))
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.PhaseLoad, e.Phase)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		ok   bool
	}{
		{"int", value.Int(-1), true},
		{"uint max", value.Uint(1<<32 - 1), true},
		{"too big", value.Int(1 << 32), false},
		{"bool", value.Bool(true), true},
		{"float", value.Float(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw uint64
			fn := func() { raw = encode("f", 0, api.ValueTypeI32, tt.v) }
			if tt.ok {
				require.NotPanics(t, fn)
				assert.Equal(t, raw&0xffffffff, raw)
			} else {
				assert.Panics(t, fn)
			}
		})
	}
}
