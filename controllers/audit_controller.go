package controllers

import (
	"strings"
	"time"

	"sklad-backend/models"
	"sklad-backend/services"
	"sklad-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuditController контроллер для журнала аудита
type AuditController struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

// NewAuditController создает новый экземпляр AuditController
func NewAuditController(db *gorm.DB, audit *services.AuditService) *AuditController {
	return &AuditController{DB: db, Audit: audit}
}

// AuditResponse структура ответа с записями журнала
type AuditResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Entries []models.AuditLogEntry `json:"entries,omitempty"`
	Total   int                    `json:"total"`
}

// GetAuditLog возвращает записи журнала за период (только для администратора)
func (ac *AuditController) GetAuditLog(c *fiber.Ctx) error {
	_, role, err := ac.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(AuditResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(AuditResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	var startDate, endDate *time.Time

	if startParam := c.Query("start_date"); startParam != "" {
		parsed, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return c.Status(400).JSON(AuditResponse{
				Success: false,
				Message: "Неверный формат начальной даты",
			})
		}
		startDate = &parsed
	}

	if endParam := c.Query("end_date"); endParam != "" {
		parsed, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return c.Status(400).JSON(AuditResponse{
				Success: false,
				Message: "Неверный формат конечной даты",
			})
		}
		endDate = &parsed
	}

	entries, err := ac.Audit.Query(startDate, endDate)
	if err != nil {
		return c.Status(500).JSON(AuditResponse{
			Success: false,
			Message: "Ошибка при получении журнала аудита",
		})
	}

	return c.JSON(AuditResponse{
		Success: true,
		Message: "Журнал аудита получен",
		Entries: entries,
		Total:   len(entries),
	})
}

// getUserFromToken извлекает ID и роль пользователя из JWT токена
func (ac *AuditController) getUserFromToken(c *fiber.Ctx) (uint, string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, "", fiber.NewError(401, "Отсутствует токен авторизации")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return 0, "", fiber.NewError(401, "Неверный формат токена")
	}

	claims, err := utils.ValidateJWT(tokenParts[1])
	if err != nil {
		return 0, "", fiber.NewError(401, "Недействительный токен")
	}

	return claims.UserID, claims.Role, nil
}
