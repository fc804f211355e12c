package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(KindNotFound, "session missing")
	assert.Equal(t, "not_found: session missing", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindUpstreamUnavailable, "embedding provider", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp: refused")
}

func TestWithAllowed(t *testing.T) {
	err := WithAllowed(KindInvalidTransition, "cannot reveal_answers from input", []string{"generate_questions", "restart", "clear"})
	assert.ElementsMatch(t, []string{"generate_questions", "restart", "clear"}, err.Allowed)
}

func TestIs(t *testing.T) {
	err := New(KindConflict, "concurrent update")
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindFatal))
	assert.False(t, Is(errors.New("plain"), KindConflict))
}

func TestWithCorrelationID(t *testing.T) {
	err := New(KindFatal, "boom").WithCorrelationID("req-123")
	assert.Equal(t, "req-123", err.CorrelationID)

	var nilErr *Error
	assert.Nil(t, nilErr.WithCorrelationID("req-456"))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(New(KindTransient, "retrying"))
	require.True(t, ok)
	assert.Equal(t, KindTransient, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
