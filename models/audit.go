package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLogEntry представляет запись журнала аудита.
// Журнал только дополняется, записи никогда не изменяются и не удаляются.
type AuditLogEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"not null"`
	Action        string    `json:"action" gorm:"not null;size:30"` // 'checkout', 'checkin', 'quantity_mismatch'
	ItemID        uint      `json:"item_id" gorm:"not null;index"`
	TaskID        uint      `json:"task_id" gorm:"not null;index"`
	QuantityDelta int       `json:"quantity_delta" gorm:"not null"` // Отрицательная при выдаче, положительная при приемке
	Reason        string    `json:"reason" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`

	// Связи
	User User `json:"user" gorm:"foreignKey:UserID"`
	Item Item `json:"item" gorm:"foreignKey:ItemID"`
}

// Действия в журнале аудита
const (
	AuditActionCheckout         = "checkout"
	AuditActionCheckin          = "checkin"
	AuditActionQuantityMismatch = "quantity_mismatch"
)

// BeforeCreate хук для установки времени создания
func (a *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	a.CreatedAt = time.Now()
	return nil
}
