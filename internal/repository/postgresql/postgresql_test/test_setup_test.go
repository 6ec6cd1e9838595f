package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties every table.
// Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, truncateAllTables(ctx, db))
	return db
}

func truncateAllTables(ctx context.Context, db *database.DB) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"workflow_transition_events",
		"workflow_actions",
		"workflow_requests",
		"workflow_step_assignments",
		"workflow_steps",
		"workflow_definitions",
		"day_records",
		"punch_events",
		"timeslips",
		"leave_requests",
		"optional_holiday_acceptances",
		"holidays",
		"schedule_configs",
		"employees",
		"branches",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

const testOrg = "00000000-0000-0000-0000-0000000000aa"

// seedEmployee inserts an active employee and returns its id
func seedEmployee(t *testing.T, db *database.DB, code string, department *string) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (organization_id, employee_code, full_name, department)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, testOrg, code, "Employee "+code, department).Scan(&id)
	require.NoError(t, err)
	return id
}
