package capability

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// recordingTable returns a complete table whose ReportError unwinds the way
// a host does and records the message.
func recordingTable(reported *[]string) *Table {
	in := ident.NewInterner()
	return &Table{
		Intern: in.Intern,
		ReportError: func(msg string) {
			*reported = append(*reported, msg)
			panic(errors.Reported(msg))
		},
		FindVar:     func(value.Scope, ident.Ident) (value.Ref, bool) { return value.Ref{}, false },
		LetVar:      func(value.Scope, ident.Ident, value.Value) {},
		ConstVar:    func(value.Scope, ident.Ident) {},
		CallClosure: func(value.Code, value.Scope, []value.Value) value.Value { return value.Uninit{} },
		OutliveInc:  func(value.Scope) {},
		OutliveDec:  func(value.Scope) {},
		GetSelf:     func(value.Scope) (*value.Value, bool) { return nil, false },
		GetParent:   func(value.Scope) (value.Scope, bool) { return 0, false },
	}
}

// divergence runs fn and returns the structured error it panicked with.
func divergence(t *testing.T, fn func()) *errors.Error {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected divergence")
	err, ok := got.(*errors.Error)
	require.True(t, ok, "expected *errors.Error, got %T", got)
	return err
}

func TestUnbound_EveryCapabilityDiverges(t *testing.T) {
	var b Binding
	require.False(t, b.Bound())
	tbl := b.Table()

	calls := map[string]func(){
		"intern":       func() { tbl.Intern([]byte("x")) },
		"report_error": func() { tbl.ReportError("boom") },
		"find_var":     func() { tbl.FindVar(1, ident.Ident{}) },
		"let_var":      func() { tbl.LetVar(1, ident.Ident{}, value.Int(1)) },
		"const_var":    func() { tbl.ConstVar(1, ident.Ident{}) },
		"call_closure": func() { tbl.CallClosure(1, 1, nil) },
		"outlive_inc":  func() { tbl.OutliveInc(1) },
		"outlive_dec":  func() { tbl.OutliveDec(1) },
		"get_self":     func() { tbl.GetSelf(1) },
		"get_parent":   func() { tbl.GetParent(1) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := divergence(t, call)
			assert.Equal(t, errors.KindNotBound, err.Kind)
			assert.Equal(t, name, err.Member)
		})
	}
}

func TestBind_Once(t *testing.T) {
	var reported []string
	var b Binding
	t1 := recordingTable(&reported)

	require.NoError(t, b.Bind(t1))
	assert.True(t, b.Bound())
	assert.Same(t, t1, b.Table())

	err := b.Bind(recordingTable(&reported))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyBound))
	assert.Same(t, t1, b.Table(), "a failed bind must not replace the table")
}

func TestBind_IncompleteTable(t *testing.T) {
	var reported []string
	tbl := recordingTable(&reported)
	tbl.OutliveDec = nil
	tbl.GetParent = nil

	var b Binding
	err := b.Bind(tbl)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	assert.Contains(t, err.Error(), "OutliveDec")
	assert.Contains(t, err.Error(), "GetParent")
	assert.False(t, b.Bound())

	assert.Error(t, b.Bind(nil))
}

func TestMustBind_PanicsOnSecondBind(t *testing.T) {
	var reported []string
	var b Binding
	b.MustBind(recordingTable(&reported))

	err := divergence(t, func() { b.MustBind(recordingTable(&reported)) })
	assert.Equal(t, errors.KindAlreadyBound, err.Kind)
}

func TestRecover_RoutesPanicsToReportError(t *testing.T) {
	var reported []string
	var b Binding
	b.MustBind(recordingTable(&reported))

	err := divergence(t, func() {
		defer b.Recover()
		var list []int
		_ = list[3]
	})
	assert.Equal(t, errors.KindReported, err.Kind)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0], "index out of range")
}

func TestRecover_DoesNotReportTwice(t *testing.T) {
	var reported []string
	var b Binding
	b.MustBind(recordingTable(&reported))

	divergence(t, func() {
		defer b.Recover()
		func() {
			defer b.Recover()
			b.Fail("inner")
		}()
	})
	assert.Equal(t, []string{"inner"}, reported)
}

func TestRecover_Unbound(t *testing.T) {
	var b Binding
	err := divergence(t, func() {
		defer b.Recover()
		panic("early")
	})
	assert.Equal(t, errors.KindNotBound, err.Kind)
	assert.Contains(t, err.Detail, "early")
}

func TestGuard(t *testing.T) {
	var reported []string
	tbl := recordingTable(&reported)

	ok := Guard(tbl, func(args []value.Ref, cx value.Scope) value.Value {
		return value.Int(len(args))
	})
	assert.Equal(t, value.Int(2), ok(value.Refs(value.Int(1), value.Int(2)), 0))
	assert.Empty(t, reported)

	failing := Guard(tbl, func([]value.Ref, value.Scope) value.Value {
		panic(errors.Arity(errors.PhaseDispatch, "f", 1, 0))
	})
	err := divergence(t, func() { failing(nil, 0) })
	assert.Equal(t, errors.KindReported, err.Kind)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0], "arity")

	method := GuardMethod(tbl, func(*value.Instance, []value.Ref, value.Scope) value.Value {
		panic(fmt.Errorf("method failed"))
	})
	divergence(t, func() { method(nil, nil, 0) })
	require.Len(t, reported, 2)
	assert.Contains(t, reported[1], "method failed")
}

func TestBindingHelpers(t *testing.T) {
	var reported []string
	var b Binding
	b.MustBind(recordingTable(&reported))

	assert.True(t, b.Intern("a") == b.Intern("a"))

	err := divergence(t, func() { b.Fail("explicit") })
	assert.Equal(t, errors.KindReported, err.Kind)
	assert.Equal(t, []string{"explicit"}, reported)
}
