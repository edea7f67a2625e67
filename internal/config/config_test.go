package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmatheus/algoritmos-coord/internal/config"
)

func TestFromEnvironmentFallsBackToMYIDAndDefaults(t *testing.T) {
	t.Setenv("PROCESS_ID", "")
	t.Setenv("MY_ID", "2")
	t.Setenv("TOTAL_PROCESSES", "")
	t.Setenv("PEER_PORT", "")
	t.Setenv("PEER_HOST_TEMPLATE", "")
	t.Setenv("DELAY_TRIGGER_MESSAGE_ID", "")
	t.Setenv("DELAY_PROCESS_ID", "")
	t.Setenv("DELAY_SECONDS", "")

	cfg, err := config.FromEnvironment()
	require.NoError(t, err)
	assert.EqualValues(t, 2, cfg.ProcessID)
	assert.Equal(t, 3, cfg.TotalProcesses)
	assert.Equal(t, 8080, cfg.PeerPort)
}

func TestFromEnvironmentRejectsMalformedProcessID(t *testing.T) {
	t.Setenv("PROCESS_ID", "not-a-number")
	_, err := config.FromEnvironment()
	assert.Error(t, err)
}

func TestPeerBaseURLsDerivesStatefulSetRoster(t *testing.T) {
	cfg := config.Defaults()
	cfg.TotalProcesses = 3
	cfg.PeerHostTemplate = "algoritmos-coord-%d.algoritmos-coord-service"
	cfg.PeerPort = 8080

	urls := cfg.PeerBaseURLs()
	require.Len(t, urls, 3)
	assert.Equal(t, "http://algoritmos-coord-1.algoritmos-coord-service:8080", urls[1])
}

func TestValidateRejectsOutOfRangeProcessID(t *testing.T) {
	cfg := config.Defaults()
	cfg.ProcessID = 5
	cfg.TotalProcesses = 3
	assert.Error(t, cfg.Validate())
}

func TestDelayHookEmptyWhenNoTriggerConfigured(t *testing.T) {
	cfg := config.Defaults()
	hook := cfg.DelayHook()
	assert.Equal(t, "", hook.MessageID)
}
