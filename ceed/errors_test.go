package ceed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfClassAndWrapping(t *testing.T) {
	tests := []struct {
		sentinel error
		class    ErrorClass
	}{
		{ErrBackendNotFound, ResourceError},
		{ErrAlreadyCheckedOut, StateError},
		{ErrIndexOutOfRange, ConfigurationError},
		{ErrFieldMismatch, ConfigurationError},
		{ErrQFunction, ComputeError},
		{ErrInUse, StateError},
	}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			err := Errorf("Vector", "GetArray", tt.sentinel, "value %d", 7)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.class, ClassOf(err))
			assert.Contains(t, err.Error(), "Vector.GetArray")
			assert.Contains(t, err.Error(), "value 7")

			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "GetArray", ce.Op)
		})
	}
}

func TestWrapKeepsClass(t *testing.T) {
	inner := Errorf("Basis", "Apply", ErrDimensionMismatch, "")
	assert.Same(t, inner, wrap("Operator", "Apply", inner))
	assert.NoError(t, wrap("Operator", "Apply", nil))

	foreign := fmt.Errorf("device lost: %w", ErrInvalidMemType)
	err := wrap("Vector", "SyncArray", foreign)
	assert.Equal(t, ResourceError, ClassOf(err))
	assert.ErrorIs(t, err, ErrInvalidMemType)

	assert.Equal(t, ClassUnknown, ClassOf(errors.New("other")))
}
