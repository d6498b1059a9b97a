package routes

import (
	"sklad-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupAuditRoutes настраивает маршруты для журнала аудита
func SetupAuditRoutes(app *fiber.App, auditController *controllers.AuditController) {
	// GET /audit - записи журнала за период (только администратор)
	app.Get("/audit", auditController.GetAuditLog)
}
