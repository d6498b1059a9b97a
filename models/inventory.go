package models

import (
	"time"

	"gorm.io/gorm"
)

// Category представляет категорию инвентаря
type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null;size:255;uniqueIndex"`
	IsConsumable bool      `json:"is_consumable" gorm:"default:false"` // true - расходный материал, false - возвратный инвентарь
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Item представляет позицию инвентаря на складе
type Item struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null;size:255;uniqueIndex"`
	CategoryID uint      `json:"category_id" gorm:"not null"`
	Quantity   int       `json:"quantity" gorm:"not null;default:0"` // Остаток на складе, не может быть отрицательным
	Version    uint      `json:"version" gorm:"not null;default:0"`  // Счетчик версий для оптимистичной блокировки
	CreatedBy  uint      `json:"created_by" gorm:"default:0"`        // ID пользователя, создавшего позицию (0 для системной)
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Связи
	Category Category `json:"category" gorm:"foreignKey:CategoryID"`
}

// BeforeCreate хук для установки времени создания
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (c *Category) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate хук для установки времени создания
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (i *Item) BeforeUpdate(tx *gorm.DB) error {
	i.UpdatedAt = time.Now()
	return nil
}
