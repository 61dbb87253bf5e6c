package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs are
// captured at debug level and printed when PIPEDEF_TEST_LOGS=true.
func SetupAppTest(t *testing.T, cfg *Config, modules ...featurekind.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(logBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("PIPEDEF_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
