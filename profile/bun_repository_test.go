package profile

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_CreateAndLookups(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created, err := repo.Create(ctx, &types.CandidateProfile{
		Email:       "  Maya.Reyes@Example.com ",
		Status:      types.StatusPtr(types.ReviewStatusNew),
		DisplayName: "Maya Reyes",
		Skills:      []string{"go", "sql"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, "maya.reyes@example.com", created.Email)
	require.NotZero(t, created.CreatedAt)
	require.NotZero(t, created.UpdatedAt)
	require.Equal(t, types.StateNew, types.CanonicalStateOf(*created))

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byID.ID)

	byEmail, err := repo.GetByEmail(ctx, "MAYA.REYES@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, types.ErrProfileNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Create(ctx, &types.CandidateProfile{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &types.CandidateProfile{Email: "Dup@Example.com"})
	require.ErrorIs(t, err, types.ErrDuplicateEmail)

	page, err := repo.List(ctx, types.ProfileListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
}

func TestRepository_ApplyPatchOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created, err := repo.Create(ctx, &types.CandidateProfile{
		Email:       "patch@example.com",
		Status:      types.StatusPtr(types.ReviewStatusPending),
		DisplayName: "Original Name",
		Bio:         "Original bio",
	})
	require.NoError(t, err)

	updated, err := repo.ApplyPatch(ctx, created.ID, types.ApprovalPatch())
	require.NoError(t, err)
	require.Nil(t, updated.Status)
	require.True(t, *updated.Approved)
	require.True(t, *updated.Visible)
	require.Equal(t, "Original Name", updated.DisplayName)
	require.Equal(t, "Original bio", updated.Bio)
	require.Equal(t, types.StateApproved, types.CanonicalStateOf(*updated))
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	forced, err := repo.ApplyPatch(ctx, created.ID, types.ForceStatusPatch(types.ReviewStatusPending))
	require.NoError(t, err)
	require.Equal(t, types.ReviewStatusPending, *forced.Status)
	require.True(t, *forced.Approved, "boolean pair must survive a status-only patch")

	_, err = repo.ApplyPatch(ctx, uuid.New(), types.RejectionPatch())
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestRepository_ListFiltersAndPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	statuses := []types.ReviewStatus{
		types.ReviewStatusNew,
		types.ReviewStatusPending,
		types.ReviewStatusPending,
		types.ReviewStatusApproved,
	}
	for i, status := range statuses {
		_, err := repo.Create(ctx, &types.CandidateProfile{
			Email:  "user" + string(rune('a'+i)) + "@example.com",
			Status: types.StatusPtr(status),
		})
		require.NoError(t, err)
	}

	pending, err := repo.List(ctx, types.ProfileListFilter{
		Statuses: []types.ReviewStatus{types.ReviewStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, pending.Profiles, 2)

	page, err := repo.List(ctx, types.ProfileListFilter{
		Pagination: types.Pagination{Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 3)
	require.Equal(t, 4, page.Total)
	require.True(t, page.HasMore)
	require.Equal(t, 3, page.NextOffset)

	rest, err := repo.List(ctx, types.ProfileListFilter{
		Pagination: types.Pagination{Limit: 3, Offset: page.NextOffset},
	})
	require.NoError(t, err)
	require.Len(t, rest.Profiles, 1)
	require.False(t, rest.HasMore)
}

func TestRepository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created, err := repo.Create(ctx, &types.CandidateProfile{Email: "gone@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, types.ErrProfileNotFound)
	require.ErrorIs(t, repo.DeleteByID(ctx, created.ID), types.ErrProfileNotFound)
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := newTestDB(t)
	applyDDL(t, db)
	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)
	return repo
}

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDDL(t *testing.T, db *bun.DB) {
	t.Helper()
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00001_candidate_profiles.up.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}
