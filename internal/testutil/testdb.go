// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"whatsapp-salesbot/internal/config"
	"whatsapp-salesbot/internal/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewStore opens a throwaway sqlite store under the test's temp directory.
func NewStore(t *testing.T) *database.Store {
	t.Helper()

	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "salesbot_test.db"),
	}

	store, err := database.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
