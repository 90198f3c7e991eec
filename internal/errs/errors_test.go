package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindAuthorization, KindOf(Authorization("nope")))
	assert.Equal(t, KindConflict, KindOf(Conflict("already done")))
	assert.Equal(t, KindTransientStore, KindOf(TransientStore("store down", errors.New("dial refused"))))

	// Unclassified errors surface as retryable, not as client faults.
	assert.Equal(t, KindTransientStore, KindOf(errors.New("mystery")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("submit answer: %w", Conflict("session completed"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransientStore("redis call failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "redis call failed")
	assert.Contains(t, err.Error(), "connection reset")
}
