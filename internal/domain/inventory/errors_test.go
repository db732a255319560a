package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNative_KnownCodes(t *testing.T) {
	tests := []struct {
		native NativeError
		want   Kind
	}{
		{native: NativeOperationFailed, want: KindOperationFailed},
		{native: NativeGetResultItemsFailed, want: KindGetResultItemsFailed},
		{native: NativeInvalidInput, want: KindInvalidInput},
		{native: NativeTimeout, want: KindTimeout},
	}

	seen := make(map[Kind]NativeError)
	for _, tt := range tests {
		t.Run(tt.native.Error(), func(t *testing.T) {
			got := FromNative(tt.native)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.native)
		})
		prev, dup := seen[tt.want]
		require.False(t, dup, "native codes %v and %v map to the same kind", prev, tt.native)
		seen[tt.want] = tt.native
	}
	assert.Len(t, seen, len(Kinds()))
}

func TestFromNative_WrappedAndForeignErrors(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, FromNative(nil))
	})

	t.Run("wrapped native code", func(t *testing.T) {
		got := FromNative(fmt.Errorf("consume 100: %w", NativeTimeout))
		assert.Equal(t, KindTimeout, got.Kind)
		assert.Contains(t, got.Detail, "consume 100")
	})

	t.Run("unknown native code falls back to operation failed", func(t *testing.T) {
		got := FromNative(NativeError(99))
		assert.Equal(t, KindOperationFailed, got.Kind)
		assert.Contains(t, got.Detail, "99")
	})

	t.Run("untyped error never escapes", func(t *testing.T) {
		cause := errors.New("socket closed")
		got := FromNative(cause)
		assert.Equal(t, KindOperationFailed, got.Kind)
		assert.ErrorIs(t, got, cause)
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		got := FromNative(context.DeadlineExceeded)
		assert.Equal(t, KindTimeout, got.Kind)
	})

	t.Run("already mapped error passes through", func(t *testing.T) {
		in := NewError(KindInvalidInput, "bad id")
		assert.Same(t, in, FromNative(fmt.Errorf("wrap: %w", in)))
	})
}

func TestError_IsMatchesKind(t *testing.T) {
	err := NewError(KindGetResultItemsFailed, "no result handle")

	assert.ErrorIs(t, err, ErrGetResultItemsFailed)
	assert.NotErrorIs(t, err, ErrOperationFailed)
	assert.Equal(t, "inventory: GetResultItemsFailed: no result handle", err.Error())
	assert.Equal(t, "inventory: Timeout", ErrTimeout.Error())

	kind, ok := KindOf(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, KindGetResultItemsFailed, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKind_String(t *testing.T) {
	names := make(map[string]bool)
	for _, k := range Kinds() {
		names[k.String()] = true
	}
	assert.Equal(t, map[string]bool{
		"OperationFailed":      true,
		"GetResultItemsFailed": true,
		"InvalidInput":         true,
		"Timeout":              true,
	}, names)
}
