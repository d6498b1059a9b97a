package routes

import (
	"sklad-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupDashboardRoutes настраивает маршруты для сводки по складу
func SetupDashboardRoutes(app *fiber.App, dashboardController *controllers.DashboardController) {
	api := app.Group("/api/dashboard")

	// Получение сводных данных по складу и задачам
	api.Get("/", dashboardController.GetDashboardData)
}
