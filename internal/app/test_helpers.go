package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodeflowgo/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing, logging at
// debug level into a buffer that is dumped when testutil.LogsEnv is set.
func SetupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	valid, err := NewConfig(cfg)
	require.NoError(t, err)
	testApp, err := NewApp(logBuffer, valid)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
