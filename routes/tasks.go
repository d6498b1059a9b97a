package routes

import (
	"sklad-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupTaskRoutes настраивает маршруты для задач выдачи и приемки
func SetupTaskRoutes(app *fiber.App, taskController *controllers.TaskController) {
	// Группа маршрутов для задач
	tasks := app.Group("/tasks")

	// POST /tasks - создать задачу выдачи или приемки (требует авторизации)
	tasks.Post("/", taskController.CreateTask)

	// GET /tasks - список задач, опционально по ивенту (требует авторизации)
	tasks.Get("/", taskController.GetTasks)

	// GET /tasks/health - проверка работоспособности (должен быть перед параметрическим маршрутом)
	tasks.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Tasks service is running",
			"timestamp": fiber.Map{
				"unix": fiber.Map{
					"seconds": c.Context().Time().Unix(),
				},
			},
		})
	})

	// GET /tasks/:id - получить задачу с позициями (требует авторизации)
	tasks.Get("/:id", taskController.GetTask)

	// POST /tasks/:id/lines - добавить позицию вне резервирования (требует авторизации)
	tasks.Post("/:id/lines", taskController.AddLine)

	// POST /tasks/:id/complete - завершить задачу (требует авторизации)
	tasks.Post("/:id/complete", taskController.CompleteTask)

	// POST /tasks/:id/cancel - отменить задачу (требует авторизации)
	tasks.Post("/:id/cancel", taskController.CancelTask)

	// PUT /lines/:id - обновить позицию задачи (требует авторизации)
	app.Put("/lines/:id", taskController.UpdateLine)
}
