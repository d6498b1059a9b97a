package controllers

import (
	"errors"
	"strconv"
	"strings"

	"sklad-backend/models"
	"sklad-backend/services"
	"sklad-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReservationController контроллер для резервирований инвентаря под ивенты
type ReservationController struct {
	DB           *gorm.DB
	Reservations *services.ReservationService
}

// NewReservationController создает новый экземпляр ReservationController
func NewReservationController(db *gorm.DB, reservations *services.ReservationService) *ReservationController {
	return &ReservationController{DB: db, Reservations: reservations}
}

// AddReservationRequest структура запроса резервирования
type AddReservationRequest struct {
	ItemID   uint `json:"item_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

// ReservationResponse структура ответа с резервированием
type ReservationResponse struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message"`
	Reservation *models.EventReservation `json:"reservation,omitempty"`
}

// ReservationsResponse структура ответа со списком резервирований
type ReservationsResponse struct {
	Success      bool                      `json:"success"`
	Message      string                    `json:"message"`
	Reservations []models.EventReservation `json:"reservations,omitempty"`
}

// GetReservations возвращает резервирования ивента
func (rc *ReservationController) GetReservations(c *fiber.Ctx) error {
	if _, err := rc.getUserIDFromToken(c); err != nil {
		return c.Status(401).JSON(ReservationsResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ReservationsResponse{
			Success: false,
			Message: "Неверный ID ивента",
		})
	}

	reservations, err := rc.Reservations.ListReservations(uint(eventID))
	if err != nil {
		return c.Status(500).JSON(ReservationsResponse{
			Success: false,
			Message: "Ошибка при получении резервирований",
		})
	}

	return c.JSON(ReservationsResponse{
		Success:      true,
		Message:      "Резервирования получены",
		Reservations: reservations,
	})
}

// AddReservation резервирует количество позиции под ивент
func (rc *ReservationController) AddReservation(c *fiber.Ctx) error {
	if _, err := rc.getUserIDFromToken(c); err != nil {
		return c.Status(401).JSON(ReservationResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ReservationResponse{
			Success: false,
			Message: "Неверный ID ивента",
		})
	}

	var req AddReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ReservationResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	reservation, err := rc.Reservations.AddReservation(uint(eventID), req.ItemID, req.Quantity)
	if err != nil {
		status, message := mapTaskError(err)
		return c.Status(status).JSON(ReservationResponse{
			Success: false,
			Message: message,
		})
	}

	return c.Status(201).JSON(ReservationResponse{
		Success:     true,
		Message:     "Резервирование успешно создано",
		Reservation: reservation,
	})
}

// RemoveReservation удаляет резервирование, если по нему не было выдачи
func (rc *ReservationController) RemoveReservation(c *fiber.Ctx) error {
	if _, err := rc.getUserIDFromToken(c); err != nil {
		return c.Status(401).JSON(ReservationResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	reservationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ReservationResponse{
			Success: false,
			Message: "Неверный ID резервирования",
		})
	}

	if err := rc.Reservations.RemoveReservation(uint(reservationID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(ReservationResponse{
				Success: false,
				Message: "Резервирование не найдено",
			})
		}
		return c.Status(400).JSON(ReservationResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	return c.JSON(ReservationResponse{
		Success: true,
		Message: "Резервирование удалено",
	})
}

// getUserIDFromToken извлекает ID пользователя из JWT токена
func (rc *ReservationController) getUserIDFromToken(c *fiber.Ctx) (uint, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, fiber.NewError(401, "Отсутствует токен авторизации")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return 0, fiber.NewError(401, "Неверный формат токена")
	}

	claims, err := utils.ValidateJWT(tokenParts[1])
	if err != nil {
		return 0, fiber.NewError(401, "Недействительный токен")
	}

	return claims.UserID, nil
}
