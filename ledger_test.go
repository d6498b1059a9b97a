package main

import (
	"errors"
	"testing"

	"sklad-backend/services"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestApplyDeltaDebit(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)

	updated, err := ledger.ApplyDelta(item.ID, -5, item.Version)
	assert.NoError(t, err)
	assert.Equal(t, 15, updated.Quantity)
	assert.Equal(t, item.Version+1, updated.Version)
}

func TestApplyDeltaCredit(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Спальный мешок", category.ID, 10)

	updated, err := ledger.ApplyDelta(item.ID, 3, item.Version)
	assert.NoError(t, err)
	assert.Equal(t, 13, updated.Quantity)
	assert.Equal(t, item.Version+1, updated.Version)
}

func TestApplyDeltaVersionConflict(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Фонарик", category.ID, 10)

	// Первая операция повышает версию
	_, err := ledger.ApplyDelta(item.ID, -1, item.Version)
	assert.NoError(t, err)

	// Вторая операция с устаревшей версией отклоняется без изменения остатка
	_, err = ledger.ApplyDelta(item.ID, -1, item.Version)
	assert.Error(t, err)

	var conflict *services.VersionConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, item.ID, conflict.ItemID)
	assert.Equal(t, item.Version, conflict.ExpectedVersion)
	assert.Equal(t, item.Version+1, conflict.ActualVersion)

	quantity, err := ledger.GetQuantity(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 9, quantity)
}

func TestApplyDeltaNegativeStock(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Радио", category.ID, 4)

	_, err := ledger.ApplyDelta(item.ID, -5, item.Version)
	assert.Error(t, err)

	var negative *services.NegativeStockError
	assert.True(t, errors.As(err, &negative))
	assert.Equal(t, item.ID, negative.ItemID)
	assert.Equal(t, 4, negative.Quantity)
	assert.Equal(t, -5, negative.Delta)

	// Остаток и версия не изменились
	current, err := ledger.GetItem(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, current.Quantity)
	assert.Equal(t, item.Version, current.Version)
}

func TestApplyDeltaInactiveItem(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Грабли", category.ID, 10)

	db.Model(item).Update("is_active", false)

	_, err := ledger.ApplyDelta(item.ID, -1, item.Version)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetItemLoadsCategory(t *testing.T) {
	db := setupTestDB()
	ledger := services.NewLedgerService(db)

	category := createTestCategory(db, "Расходные материалы", true)
	item := createTestItem(db, "Мешки для мусора", category.ID, 100)

	loaded, err := ledger.GetItem(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, category.ID, loaded.Category.ID)
	assert.True(t, loaded.Category.IsConsumable)
}
