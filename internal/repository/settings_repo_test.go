package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/applytrack/internal/domain"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	ctx := context.Background()

	var labels []string
	found, err := repo.Get(ctx, domain.SettingStatusCatalog, &labels)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, domain.SettingStatusCatalog, []string{"Applied", "Interview"}))
	require.NoError(t, repo.Set(ctx, domain.SettingStatusCatalog, []string{"Applied", "Offer"}))

	found, err = repo.Get(ctx, domain.SettingStatusCatalog, &labels)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Applied", "Offer"}, labels)
}

func TestImportJobRepository_ListRecent(t *testing.T) {
	repo := NewImportJobRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.ImportJob{ID: "a", SourceID: "csv", Status: domain.JobStatusCompleted, StartedAt: date("2024-01-01")}))
	require.NoError(t, repo.Create(ctx, &domain.ImportJob{ID: "b", SourceID: "csv", Status: domain.JobStatusFailed, StartedAt: date("2024-01-02")}))

	jobs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].ID)
	assert.Equal(t, domain.JobStatusFailed, jobs[0].Status)
}
