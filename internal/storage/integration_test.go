package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
)

func TestPostgresRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Skip if Docker is not available
	if os.Getenv("CI") == "" && !isDockerAvailable() {
		t.Skip("Docker not available")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("facturier_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		if err := db.PingContext(pingCtx); err == nil {
			break
		}
		select {
		case <-pingCtx.Done():
			t.Fatal("Database not ready after 30 seconds")
		case <-time.After(100 * time.Millisecond):
		}
	}

	mgr := NewMigrationManager(db, "../../db/migrations", "postgres")
	status, err := mgr.Check(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.Run(ctx, status))

	repos := NewRepositories(db)
	userID := uuid.New()

	inv := testInvoice(userID)
	require.NoError(t, repos.Invoices.Create(ctx, inv))

	got, err := repos.Invoices.GetByID(ctx, inv.ID, userID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, got.Number)
	require.Equal(t, inv.FromAddress, got.FromAddress)
	require.Equal(t, inv.Items, got.Items)

	_, err = repos.Invoices.GetByID(ctx, inv.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	list, err := repos.Invoices.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	profile := &Profile{
		UserID:      userID,
		CompanyName: "Atelier Lumière",
		Address:     AddressLines{"12 rue des Artisans", "75011 Paris"},
	}
	require.NoError(t, repos.Profiles.Upsert(ctx, profile))
	profile.CompanyName = "Atelier Lumière SARL"
	require.NoError(t, repos.Profiles.Upsert(ctx, profile))

	gotProfile, err := repos.Profiles.Get(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Atelier Lumière SARL", gotProfile.CompanyName)

	require.NoError(t, repos.Invoices.Delete(ctx, inv.ID, userID))
	_, err = repos.Invoices.GetByID(ctx, inv.ID, userID)
	require.ErrorIs(t, err, ErrNotFound)
}

// isDockerAvailable checks if Docker is available for testing.
func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.Client().Ping(ctx)
	return err == nil
}
