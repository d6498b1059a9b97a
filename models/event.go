package models

import (
	"time"

	"gorm.io/gorm"
)

// Event представляет модель ивента, под который резервируется инвентарь
type Event struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatorID uint      `json:"creator_id" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null;size:255;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Связи
	Creator      User               `json:"creator" gorm:"foreignKey:CreatorID"`
	Reservations []EventReservation `json:"reservations" gorm:"foreignKey:EventID"`
}

// EventReservation представляет резервирование инвентаря под ивент.
// Резервирование фиксирует намерение, а не физическое перемещение.
type EventReservation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   uint      `json:"event_id" gorm:"not null;index"`
	ItemID    uint      `json:"item_id" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null"` // Зарезервированное количество, строго больше нуля
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Связи
	Event Event `json:"event" gorm:"foreignKey:EventID"`
	Item  Item  `json:"item" gorm:"foreignKey:ItemID"`
}

// BeforeCreate хук для установки времени создания
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (e *Event) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate хук для EventReservation
func (er *EventReservation) BeforeCreate(tx *gorm.DB) error {
	er.CreatedAt = time.Now()
	er.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для EventReservation
func (er *EventReservation) BeforeUpdate(tx *gorm.DB) error {
	er.UpdatedAt = time.Now()
	return nil
}
