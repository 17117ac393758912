package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/facturier/facturier/internal/api/middleware"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/storage"
)

// newTestRepos returns repositories over an in-memory SQLite database.
func newTestRepos(t *testing.T) *storage.Repositories {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	mgr := storage.NewMigrationManager(db, "../../../db/migrations", "sqlite")
	status, err := mgr.Check(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Run(context.Background(), status))

	return storage.NewRepositories(db)
}

func newTestLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       "error",
		Format:      "json",
		Output:      io.Discard,
		ServiceName: "test",
	})
}

func testUser() middleware.User {
	return middleware.User{
		ID:    uuid.MustParse("7f9c24e5-3f1a-4a0b-9d2e-111111111111"),
		Email: "amelie@example.com",
		Token: "tok-test",
	}
}

// asUser attaches an authenticated user the way the auth middleware would.
func asUser(req *http.Request, user middleware.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

// withRouteParam attaches a chi URL parameter for direct handler calls.
func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
