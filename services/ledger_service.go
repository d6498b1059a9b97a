package services

import (
	"errors"

	"sklad-backend/models"

	"gorm.io/gorm"
)

// LedgerService предоставляет методы для работы с остатками склада.
// ApplyDelta - единственный путь изменения остатка: одно условное обновление,
// защищенное счетчиком версий (оптимистичная блокировка).
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService создает новый сервис склада
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// GetItem возвращает активную позицию склада по ID
func (s *LedgerService) GetItem(itemID uint) (*models.Item, error) {
	var item models.Item
	err := s.db.Preload("Category").Where("id = ? AND is_active = ?", itemID, true).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetQuantity возвращает текущий остаток позиции
func (s *LedgerService) GetQuantity(itemID uint) (int, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// ApplyDelta атомарно изменяет остаток позиции при совпадении версии.
// Обновление выполняется одним условным UPDATE: проверка версии, проверка
// неотрицательности остатка и инкремент версии происходят в одном запросе,
// поэтому гонка между чтением и записью исключена.
func (s *LedgerService) ApplyDelta(itemID uint, delta int, expectedVersion uint) (*models.Item, error) {
	return s.applyDelta(s.db, itemID, delta, expectedVersion)
}

// ApplyDeltaTx выполняет ApplyDelta внутри переданной транзакции
func (s *LedgerService) ApplyDeltaTx(tx *gorm.DB, itemID uint, delta int, expectedVersion uint) (*models.Item, error) {
	return s.applyDelta(tx, itemID, delta, expectedVersion)
}

func (s *LedgerService) applyDelta(tx *gorm.DB, itemID uint, delta int, expectedVersion uint) (*models.Item, error) {
	result := tx.Model(&models.Item{}).
		Where("id = ? AND is_active = ? AND version = ? AND quantity + ? >= 0",
			itemID, true, expectedVersion, delta).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", delta),
			"version":  gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Обновление не прошло: выясняем, конфликт версий это или уход в минус
		var item models.Item
		if err := tx.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, err
		}

		if item.Version != expectedVersion {
			return nil, &VersionConflictError{
				ItemID:          itemID,
				ExpectedVersion: expectedVersion,
				ActualVersion:   item.Version,
			}
		}

		return nil, &NegativeStockError{
			ItemID:   itemID,
			Quantity: item.Quantity,
			Delta:    delta,
		}
	}

	var item models.Item
	if err := tx.Preload("Category").First(&item, itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
