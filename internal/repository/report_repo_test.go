package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
)

func TestScheduledReportRepositoryListDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduledReportRepository(db)
	now := time.Now()

	due := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "due@example.com", NextRun: now.Add(-time.Minute), IsActive: true}
	future := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "future@example.com", NextRun: now.Add(time.Hour), IsActive: true}
	stopped := models.ScheduledReport{Type: models.ReportTypeMonthly, Email: "stopped@example.com", NextRun: now.Add(-time.Hour), IsActive: false}
	require.NoError(t, repo.Create(context.Background(), &due))
	require.NoError(t, repo.Create(context.Background(), &future))
	require.NoError(t, repo.Create(context.Background(), &stopped))

	reports, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, "due@example.com", reports[0].Email)
}

func TestScheduledReportRepositorySurvivesRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduledReportRepository(db)

	classID := uint(4)
	report := models.ScheduledReport{Type: models.ReportTypeMonthly, Email: "admin@example.com", ClassID: &classID, NextRun: time.Now().Add(time.Hour), IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &report))

	found, err := repo.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportTypeMonthly, found.Type)
	require.NotNil(t, found.ClassID)
	require.Equal(t, classID, *found.ClassID)

	found.IsActive = false
	require.NoError(t, repo.Update(context.Background(), &found))

	reloaded, err := repo.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)

	require.NoError(t, repo.Delete(context.Background(), report.ID))
	remaining, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, remaining)
}
