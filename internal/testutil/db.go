// Package testutil provides builders and fakes for promotion tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/history"
)

// NewTestDB opens a migrated history database in a temp dir. It is closed when
// the test ends.
func NewTestDB(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestStore returns a store over NewTestDB.
func NewTestStore(t *testing.T) *history.Store {
	t.Helper()
	return history.NewStore(NewTestDB(t))
}
