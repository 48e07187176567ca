package repositories

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/Dosada05/swiss-tournament/db"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore runs the store contract against a live database. Set
// TEST_DATABASE_URL to a disposable database to enable it.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := db.Connect(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))

	runStoreContract(t, func(t *testing.T) Store {
		truncate(t, conn)
		return NewPostgresStore(conn)
	})
}

func truncate(t *testing.T, conn *sql.DB) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `TRUNCATE matches, players, tournaments RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
