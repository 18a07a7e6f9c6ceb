package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrKindNetwork, KindOf(NetworkError("down", nil)))
	assert.Equal(t, ErrKindTimeout, KindOf(fmt.Errorf("wrapped: %w", TimeoutError("slow", nil))))
	assert.Equal(t, ErrorKind(""), KindOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NetworkError("down", nil)))
	assert.True(t, Retryable(TimeoutError("slow", nil)))
	assert.True(t, Retryable(BadResponseError("garbage", nil)))
	// untagged failures might be transient
	assert.True(t, Retryable(fmt.Errorf("plain")))

	assert.False(t, Retryable(InputError("bad file", nil)))
	assert.False(t, Retryable(ExportError("disk full", nil)))
}
