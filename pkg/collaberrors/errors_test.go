package collaberrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesSentinelByKind(t *testing.T) {
	err := New(KindNotFound, "view-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindPersistenceUnavailable, "doc-1", cause)

	assert.True(t, errors.Is(err, ErrPersistenceUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}
