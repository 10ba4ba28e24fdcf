package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Rejected("Tickets sold out"))

	assert.ErrorIs(t, err, ErrBackendRejected)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Tickets sold out", Message(err))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Network(cause)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidation_Field(t *testing.T) {
	err := Validation("quantity", "Only 3 tickets left")

	assert.Equal(t, "quantity", FieldOf(err))
	assert.Equal(t, "", FieldOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "quantity")
}

func TestMessage_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"in flight", ErrInFlight, "A request is already in progress."},
		{"poll timeout", fmt.Errorf("poll: %w", ErrPollTimeout), "Payment is still processing. Please check again shortly."},
		{"unknown", errors.New("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
