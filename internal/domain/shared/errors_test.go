package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError("INVALID_STATE", "quote Q-1 cannot be edited")
	assert.Equal(t, "quote Q-1 cannot be edited", err.Error())
	assert.Equal(t, "INVALID_STATE", err.Code)
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError("INVALID_STATE", "specific message")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("converting: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidState))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"domain error", ErrNotFound, "NOT_FOUND"},
		{"wrapped domain error", fmt.Errorf("x: %w", ErrConflict), "CONFLICT"},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}
