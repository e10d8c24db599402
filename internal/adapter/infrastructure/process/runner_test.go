//go:build unit

package process

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerAdapter_Run(t *testing.T) {
	runner := NewRunnerAdapter(false)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rc, err := runner.Run(ctx, nil, "true")
		require.NoError(t, err)
		assert.Equal(t, 0, rc)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		rc, err := runner.Run(ctx, nil, "sh", "-c", "exit 2")
		require.NoError(t, err)
		assert.Equal(t, 2, rc)
	})

	t.Run("Stdin", func(t *testing.T) {
		rc, err := runner.Run(ctx, strings.NewReader("enable-dbus\n"), "grep", "-q", "enable-dbus")
		require.NoError(t, err)
		assert.Equal(t, 0, rc)
	})

	t.Run("MissingExecutable", func(t *testing.T) {
		rc, err := runner.Run(ctx, nil, "/nonexistent/dnsmasq")
		assert.Error(t, err)
		assert.Equal(t, -1, rc)
		assert.Contains(t, err.Error(), "failed to run /nonexistent/dnsmasq")
	})
}
