package routes

import (
	"sklad-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupItemRoutes настраивает маршруты для позиций склада и категорий
func SetupItemRoutes(app *fiber.App, itemController *controllers.ItemController) {
	// Группа маршрутов для позиций склада
	items := app.Group("/items")

	// GET /items - список позиций (публичный доступ)
	items.Get("/", itemController.GetItems)

	// POST /items - создать позицию (только администратор)
	items.Post("/", itemController.CreateItem)

	// GET /items/:id - получить позицию
	items.Get("/:id", itemController.GetItem)

	// PUT /items/:id - обновить позицию (только администратор)
	items.Put("/:id", itemController.UpdateItem)

	// DELETE /items/:id - мягко удалить позицию (только администратор)
	items.Delete("/:id", itemController.DeleteItem)

	// POST /items/:id/adjust - административная корректировка остатка
	items.Post("/:id/adjust", itemController.AdjustItem)

	// Группа маршрутов для категорий
	categories := app.Group("/categories")

	// GET /categories - список категорий (публичный доступ)
	categories.Get("/", itemController.GetCategories)

	// POST /categories - создать категорию (только администратор)
	categories.Post("/", itemController.CreateCategory)
}
