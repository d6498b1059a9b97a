package routes

import (
	"sklad-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupReservationRoutes настраивает маршруты для резервирований инвентаря
func SetupReservationRoutes(app *fiber.App, reservationController *controllers.ReservationController) {
	// Группа маршрутов для резервирований в рамках ивента
	events := app.Group("/events")

	// GET /events/:id/reservations - резервирования ивента (требует авторизации)
	events.Get("/:id/reservations", reservationController.GetReservations)

	// POST /events/:id/reservations - зарезервировать позицию под ивент (требует авторизации)
	events.Post("/:id/reservations", reservationController.AddReservation)

	// DELETE /reservations/:id - удалить резервирование (требует авторизации)
	app.Delete("/reservations/:id", reservationController.RemoveReservation)
}
