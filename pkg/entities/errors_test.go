package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", ErrAlreadyClosed, true},
		{"wrapped sentinel", fmt.Errorf("error closing ticket: %w", ErrPermissionDenied), true},
		{"blacklisted", &BlacklistedError{Reason: "spam"}, true},
		{"cooldown", &CooldownError{RemainingHours: 3}, true},
		{"validation", NewValidationError("name", "is required"), true},
		{"not found", NewNotFoundError("ticket"), true},
		{"claimed", &ClaimedError{ClaimedBy: "1"}, true},
		{"external", NewExternalError("creating channel", errors.New("boom")), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsDomainError(tt.err))
		})
	}
}

func TestExternalError(t *testing.T) {
	cause := errors.New("discord down")
	err := fmt.Errorf("error creating ticket: %w", NewExternalError("creating channel", cause))

	require.ErrorIs(t, err, ErrExternalService)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "error creating ticket: error creating channel: discord down", err.Error())
}

func TestTypedErrors(t *testing.T) {
	var cd *CooldownError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", &CooldownError{RemainingHours: 23}), &cd))
	require.Equal(t, 23, cd.RemainingHours)

	var bl *BlacklistedError
	require.True(t, errors.As(&BlacklistedError{Reason: "abuse"}, &bl))
	require.Equal(t, "user is blacklisted: abuse", bl.Error())
	require.Equal(t, "user is blacklisted", (&BlacklistedError{}).Error())
}
