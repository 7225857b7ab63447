package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

func strPtr(value string) *string { return &value }

func TestFeeRepositoryPairUniqueness(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeeRepository(db)

	first := models.Fee{StudentID: 1, ClassID: 1, FeeToBePaid: "100.00", FeePaid: strPtr("40.00"), FeeUnpaid: strPtr("60.00")}
	require.NoError(t, repo.Create(context.Background(), &first))

	duplicate := models.Fee{StudentID: 1, ClassID: 1, FeeToBePaid: "50.00"}
	err := repo.Create(context.Background(), &duplicate)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestFeeRepositoryFindByPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeeRepository(db)

	require.NoError(t, repo.Create(context.Background(), &models.Fee{StudentID: 7, ClassID: 3, FeeToBePaid: "100.00"}))

	found, err := repo.FindByPair(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Equal(t, "100.00", found.FeeToBePaid)

	_, err = repo.FindByPair(context.Background(), 7, 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFeeRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeeRepository(db)

	require.NoError(t, repo.Create(context.Background(), &models.Fee{StudentID: 1, ClassID: 1, FeeToBePaid: "100.00"}))
	require.NoError(t, repo.Create(context.Background(), &models.Fee{StudentID: 2, ClassID: 2, FeeToBePaid: "200.00"}))

	classID := uint(2)
	fees, err := repo.List(context.Background(), FeeFilter{ClassID: &classID})
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, uint(2), fees[0].StudentID)

	all, err := repo.List(context.Background(), FeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
