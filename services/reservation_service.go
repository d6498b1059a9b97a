package services

import (
	"errors"

	"sklad-backend/models"

	"gorm.io/gorm"
)

// ReservationService предоставляет методы для работы с резервированиями инвентаря под ивенты
type ReservationService struct {
	db *gorm.DB
}

// NewReservationService создает новый сервис резервирований
func NewReservationService(db *gorm.DB) *ReservationService {
	return &ReservationService{db: db}
}

// ListReservations возвращает все резервирования ивента
func (s *ReservationService) ListReservations(eventID uint) ([]models.EventReservation, error) {
	var reservations []models.EventReservation
	err := s.db.Preload("Item").Preload("Item.Category").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// AddReservation резервирует количество позиции под ивент.
// Резервирование фиксирует намерение и не изменяет остаток склада,
// но не может превышать текущий остаток.
func (s *ReservationService) AddReservation(eventID, itemID uint, quantity int) (*models.EventReservation, error) {
	if quantity <= 0 {
		return nil, errors.New("количество должно быть больше нуля")
	}

	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &EventNotFoundError{EventID: eventID}
		}
		return nil, err
	}

	var item models.Item
	if err := s.db.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
		return nil, err
	}

	if quantity > item.Quantity {
		return nil, &InsufficientStockError{
			ItemID:    itemID,
			Requested: quantity,
			Available: item.Quantity,
		}
	}

	reservation := models.EventReservation{
		EventID:  eventID,
		ItemID:   itemID,
		Quantity: quantity,
	}

	if err := s.db.Create(&reservation).Error; err != nil {
		return nil, err
	}

	// Загружаем связанные данные
	s.db.Preload("Item").Preload("Item.Category").First(&reservation, reservation.ID)

	return &reservation, nil
}

// RemoveReservation удаляет резервирование, если по нему еще не было выдачи
func (s *ReservationService) RemoveReservation(reservationID uint) error {
	var reservation models.EventReservation
	if err := s.db.First(&reservation, reservationID).Error; err != nil {
		return err
	}

	// Резервирование, по которому уже создана позиция выдачи, удалять нельзя
	var lineCount int64
	if err := s.db.Model(&models.CheckoutLine{}).
		Where("reservation_id = ?", reservationID).
		Count(&lineCount).Error; err != nil {
		return err
	}
	if lineCount > 0 {
		return errors.New("резервирование уже используется в задаче выдачи")
	}

	return s.db.Delete(&reservation).Error
}

// ResolveOrCreateEvent находит ивент по ID или имени, создавая его при необходимости
func (s *ReservationService) ResolveOrCreateEvent(eventID uint, eventName string, creatorID uint) (*models.Event, error) {
	var event models.Event

	if eventID != 0 {
		if err := s.db.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &EventNotFoundError{EventID: eventID}
			}
			return nil, err
		}
		return &event, nil
	}

	if eventName == "" {
		return nil, &EventNotFoundError{}
	}

	err := s.db.Where("name = ?", eventName).First(&event).Error
	if err == nil {
		return &event, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	event = models.Event{
		Name:      eventName,
		CreatorID: creatorID,
		IsActive:  true,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, &EventNotFoundError{EventName: eventName}
	}

	return &event, nil
}
