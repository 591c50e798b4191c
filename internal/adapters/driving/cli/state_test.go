package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-data/sailtap/internal/adapters/driven/storage/memory"
	"github.com/windward-data/sailtap/internal/core/domain"
)

func setupStateTest(t *testing.T) {
	t.Helper()
	oldRunner, oldStore, oldSettings := syncRunner, checkpointStore, appSettings
	syncRunner = &mockSyncRunner{}
	checkpointStore = memory.NewCheckpointStore()
	appSettings = domain.DefaultSettings()
	appSettings.Account.APIKey = "key123"
	t.Cleanup(func() {
		syncRunner, checkpointStore, appSettings = oldRunner, oldStore, oldSettings
	})
}

func TestStateShowCmd_NoCheckpoint(t *testing.T) {
	setupStateTest(t)

	out, err := execute("state", "show")

	assert.NoError(t, err)
	assert.Contains(t, out, "No checkpoint stored")
}

func TestStateShowCmd_PrintsCheckpoint(t *testing.T) {
	setupStateTest(t)

	state := domain.NewState()
	state.Stream("lists").ReplicationKey = "create_time"
	state.Stream("lists").ReplicationValue = "2023-01-01 00:00:00"
	require.NoError(t, checkpointStore.Save(context.Background(), "key123", state))

	out, err := execute("state", "show")

	assert.NoError(t, err)
	assert.Contains(t, out, `"replication_key": "create_time"`)
	assert.Contains(t, out, "2023-01-01 00:00:00")
}

func TestStateClearCmd(t *testing.T) {
	setupStateTest(t)

	require.NoError(t, checkpointStore.Save(context.Background(), "key123", domain.NewState()))

	out, err := execute("state", "clear")
	assert.NoError(t, err)
	assert.Contains(t, out, "Checkpoint cleared")

	_, err = checkpointStore.Load(context.Background(), "key123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
