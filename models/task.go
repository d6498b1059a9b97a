package models

import (
	"time"

	"gorm.io/gorm"
)

// CheckoutTask представляет пакетную операцию выдачи или приемки инвентаря
type CheckoutTask struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	EventID     uint       `json:"event_id" gorm:"not null;index"`
	Type        string     `json:"type" gorm:"not null;size:20"`                    // 'checkout' или 'checkin'
	Status      string     `json:"status" gorm:"not null;default:'pending';size:20"` // 'pending', 'in_progress', 'completed', 'cancelled'
	CreatedBy   uint       `json:"created_by" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Связи
	Event   Event          `json:"event" gorm:"foreignKey:EventID"`
	Creator User           `json:"creator" gorm:"foreignKey:CreatedBy"`
	Lines   []CheckoutLine `json:"lines" gorm:"foreignKey:TaskID"`
}

// CheckoutLine представляет одну позицию в задаче выдачи/приемки
type CheckoutLine struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	TaskID           uint       `json:"task_id" gorm:"not null;index"`
	ItemID           uint       `json:"item_id" gorm:"not null"`
	ReservationID    *uint      `json:"reservation_id"` // nullable для позиций, добавленных вручную
	SourceLineID     *uint      `json:"source_line_id"` // для приемки: позиция выдачи, которую зеркалит эта позиция
	OriginalQuantity int        `json:"original_quantity" gorm:"not null"` // Зарезервированное или ранее выданное количество
	ActualQuantity   int        `json:"actual_quantity" gorm:"not null"`   // Фактически перемещенное количество
	Status           string     `json:"status" gorm:"not null;default:'pending';size:20"` // 'pending', 'checked', 'checked_in', 'cancelled'
	Reason           string     `json:"reason" gorm:"type:text"` // Обязательна при недостаче невозвратного инвентаря
	CheckedBy        *uint      `json:"checked_by"`
	CheckedAt        *time.Time `json:"checked_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Связи
	Task        CheckoutTask      `json:"-" gorm:"foreignKey:TaskID"`
	Item        Item              `json:"item" gorm:"foreignKey:ItemID"`
	Reservation *EventReservation `json:"reservation,omitempty" gorm:"foreignKey:ReservationID"`
}

// Константы для задач выдачи/приемки
const (
	// Типы задач
	TaskTypeCheckout = "checkout"
	TaskTypeCheckin  = "checkin"

	// Статусы задач
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"

	// Статусы позиций
	LineStatusPending   = "pending"
	LineStatusChecked   = "checked"
	LineStatusCheckedIn = "checked_in"
	LineStatusCancelled = "cancelled"
)

// IsTerminal возвращает true, если задача находится в терминальном статусе
func (t *CheckoutTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}

// IsTerminal возвращает true, если позиция находится в терминальном статусе
func (l *CheckoutLine) IsTerminal() bool {
	return l.Status == LineStatusCheckedIn || l.Status == LineStatusCancelled
}

// BeforeCreate хук для установки времени создания
func (t *CheckoutTask) BeforeCreate(tx *gorm.DB) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (t *CheckoutTask) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate хук для CheckoutLine
func (l *CheckoutLine) BeforeCreate(tx *gorm.DB) error {
	l.CreatedAt = time.Now()
	l.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для CheckoutLine
func (l *CheckoutLine) BeforeUpdate(tx *gorm.DB) error {
	l.UpdatedAt = time.Now()
	return nil
}
