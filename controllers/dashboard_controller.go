package controllers

import (
	"strings"

	"sklad-backend/models"
	"sklad-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardController контроллер для сводки по складу
type DashboardController struct {
	db *gorm.DB
}

// NewDashboardController создает новый экземпляр DashboardController
func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{db: db}
}

// GetDashboardData получает сводные данные по складу и задачам
func (dc *DashboardController) GetDashboardData(c *fiber.Ctx) error {
	// Получаем ID пользователя из JWT токена
	userID, err := dc.getUserIDFromToken(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"error":   true,
			"message": "Необходима авторизация",
		})
	}

	// Получаем данные пользователя
	var user models.User
	if err := dc.db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error":   true,
			"message": "Пользователь не найден",
		})
	}

	// Статистика склада
	var stockStats struct {
		TotalItems      int64 `json:"total_items"`
		TotalQuantity   int64 `json:"total_quantity"`
		EmptyItems      int64 `json:"empty_items"`
		TotalCategories int64 `json:"total_categories"`
	}

	dc.db.Model(&models.Item{}).Where("is_active = ?", true).Count(&stockStats.TotalItems)
	dc.db.Model(&models.Item{}).Where("is_active = ?", true).Select("COALESCE(SUM(quantity), 0)").Scan(&stockStats.TotalQuantity)
	dc.db.Model(&models.Item{}).Where("is_active = ? AND quantity = 0", true).Count(&stockStats.EmptyItems)
	dc.db.Model(&models.Category{}).Where("is_active = ?", true).Count(&stockStats.TotalCategories)

	// Статистика задач
	var taskStats struct {
		OpenCheckouts  int64 `json:"open_checkouts"`
		OpenCheckins   int64 `json:"open_checkins"`
		CompletedTasks int64 `json:"completed_tasks"`
	}

	openStatuses := []string{models.TaskStatusPending, models.TaskStatusInProgress}
	dc.db.Model(&models.CheckoutTask{}).Where("type = ? AND status IN ?", models.TaskTypeCheckout, openStatuses).Count(&taskStats.OpenCheckouts)
	dc.db.Model(&models.CheckoutTask{}).Where("type = ? AND status IN ?", models.TaskTypeCheckin, openStatuses).Count(&taskStats.OpenCheckins)
	dc.db.Model(&models.CheckoutTask{}).Where("status = ?", models.TaskStatusCompleted).Count(&taskStats.CompletedTasks)

	// Мои открытые задачи
	var myTasks []models.CheckoutTask
	dc.db.Preload("Event").
		Where("created_by = ? AND status IN ?", userID, openStatuses).
		Order("created_at DESC").
		Limit(5).
		Find(&myTasks)

	// Последние записи журнала аудита
	var recentAudit []models.AuditLogEntry
	dc.db.Preload("Item").Preload("User").
		Order("created_at DESC").
		Limit(10).
		Find(&recentAudit)

	// Позиции с нулевым остатком
	var emptyItems []models.Item
	dc.db.Preload("Category").
		Where("is_active = ? AND quantity = 0", true).
		Order("name ASC").
		Limit(10).
		Find(&emptyItems)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
			"stock_stats":  stockStats,
			"task_stats":   taskStats,
			"my_tasks":     myTasks,
			"recent_audit": recentAudit,
			"empty_items":  emptyItems,
		},
	})
}

// getUserIDFromToken извлекает ID пользователя из JWT токена
func (dc *DashboardController) getUserIDFromToken(c *fiber.Ctx) (uint, error) {
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
