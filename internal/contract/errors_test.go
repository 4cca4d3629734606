package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := map[string]error{
		"FileTooLarge":         fmt.Errorf("%w: 30.0 MB (max 25 MB)", ErrFileTooLarge),
		"UpstreamRateLimited":  fmt.Errorf("transcribe: %w", fmt.Errorf("%w: 429", ErrUpstreamRateLimited)),
		"UnsupportedMediaKind": ErrUnsupportedMediaKind,
		"Internal":             errors.New("boom"),
		"":                     nil,
	}
	for want, err := range cases {
		assert.Equal(t, want, KindOf(err))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(fmt.Errorf("%w: after 6 steps", ErrLoopBudgetExceeded)))
	assert.True(t, IsTerminal(ErrUnsupportedMediaKind))
	assert.False(t, IsTerminal(ErrFileNotFound))
	assert.False(t, IsTerminal(ErrCapabilityViolation))
}
