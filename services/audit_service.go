package services

import (
	"time"

	"sklad-backend/models"

	"gorm.io/gorm"
)

// AuditService предоставляет методы для работы с журналом аудита.
// Журнал только дополняется: записи никогда не изменяются и не удаляются.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService создает новый сервис журнала аудита
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record добавляет запись в журнал аудита.
// Сервис не повторяет запись при отказе хранилища - политика повторов
// остается за вызывающей стороной.
func (s *AuditService) Record(userID uint, action string, itemID, taskID uint, delta int, reason string) (*models.AuditLogEntry, error) {
	return s.record(s.db, userID, action, itemID, taskID, delta, reason)
}

// RecordTx добавляет запись в журнал аудита внутри переданной транзакции
func (s *AuditService) RecordTx(tx *gorm.DB, userID uint, action string, itemID, taskID uint, delta int, reason string) (*models.AuditLogEntry, error) {
	return s.record(tx, userID, action, itemID, taskID, delta, reason)
}

func (s *AuditService) record(tx *gorm.DB, userID uint, action string, itemID, taskID uint, delta int, reason string) (*models.AuditLogEntry, error) {
	entry := models.AuditLogEntry{
		UserID:        userID,
		Action:        action,
		ItemID:        itemID,
		TaskID:        taskID,
		QuantityDelta: delta,
		Reason:        reason,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

// Query возвращает записи журнала за период, отсортированные по времени по убыванию.
// Нулевые границы периода означают отсутствие ограничения.
func (s *AuditService) Query(startDate, endDate *time.Time) ([]models.AuditLogEntry, error) {
	query := s.db.Preload("User").Preload("Item").Order("created_at DESC")

	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}

	var entries []models.AuditLogEntry
	err := query.Find(&entries).Error
	return entries, err
}

// QueryByTask возвращает записи журнала по конкретной задаче
func (s *AuditService) QueryByTask(taskID uint) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := s.db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}
