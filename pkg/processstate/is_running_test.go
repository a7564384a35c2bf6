package processstate

import (
	"os"
	"testing"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProcessRunning_Self(t *testing.T) {
	running, err := IsProcessRunning(os.Getpid())
	require.NoError(t, err)
	assert.True(t, running)
}

func TestIsProcessRunning_InvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		running, err := IsProcessRunning(pid)
		assert.False(t, running)
		assert.True(t, errors.IsValidationError(err))
	}
}
