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

// TaskController контроллер для задач выдачи и приемки инвентаря
type TaskController struct {
	DB    *gorm.DB
	Tasks *services.TaskService
	Hub   *services.Hub
}

// NewTaskController создает новый экземпляр TaskController
func NewTaskController(db *gorm.DB, tasks *services.TaskService, hub *services.Hub) *TaskController {
	return &TaskController{DB: db, Tasks: tasks, Hub: hub}
}

// CreateTaskRequest структура запроса создания задачи
type CreateTaskRequest struct {
	EventID   uint   `json:"event_id"`
	EventName string `json:"event_name"`
	Type      string `json:"type" validate:"required,oneof=checkout checkin"`
}

// AddLineRequest структура запроса добавления позиции вручную
type AddLineRequest struct {
	ItemID   uint `json:"item_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

// UpdateLineRequest структура запроса обновления позиции
type UpdateLineRequest struct {
	ActualQuantity int    `json:"actual_quantity" validate:"min=0"`
	Status         string `json:"status"`
	Reason         string `json:"reason"`
}

// TaskResponse структура ответа с задачей
type TaskResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Task    *models.CheckoutTask `json:"task,omitempty"`
}

// TasksResponse структура ответа со списком задач
type TasksResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Tasks   []models.CheckoutTask `json:"tasks,omitempty"`
}

// LineResponse структура ответа с позицией задачи
type LineResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Line    *models.CheckoutLine `json:"line,omitempty"`
}

// PartialCompletionResponse структура ответа при частичном завершении задачи
type PartialCompletionResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	CompletedLines []uint `json:"completed_lines"`
	FailedLineID   uint   `json:"failed_line_id"`
	FailedItemID   uint   `json:"failed_item_id"`
}

// CreateTask создает задачу выдачи или приемки по ивенту
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	userID, _, err := tc.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(TaskResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(TaskResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	var task *models.CheckoutTask

	switch req.Type {
	case models.TaskTypeCheckout:
		task, err = tc.Tasks.CreateCheckoutTask(req.EventID, req.EventName, userID)
	case models.TaskTypeCheckin:
		task, err = tc.Tasks.CreateCheckinTask(req.EventID, userID)
	default:
		return c.Status(400).JSON(TaskResponse{
			Success: false,
			Message: "Тип задачи должен быть 'checkout' или 'checkin'",
		})
	}

	if err != nil {
		status, message := mapTaskError(err)
		return c.Status(status).JSON(TaskResponse{
			Success: false,
			Message: message,
		})
	}

	return c.Status(201).JSON(TaskResponse{
		Success: true,
		Message: "Задача успешно создана",
		Task:    task,
	})
}

// GetTask возвращает задачу со всеми позициями
func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	if _, _, err := tc.getUserFromToken(c); err != nil {
		return c.Status(401).JSON(TaskResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TaskResponse{
			Success: false,
			Message: "Неверный ID задачи",
		})
	}

	task, err := tc.Tasks.GetTask(uint(taskID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(TaskResponse{
				Success: false,
				Message: "Задача не найдена",
			})
		}
		return c.Status(500).JSON(TaskResponse{
			Success: false,
			Message: "Ошибка при получении задачи",
		})
	}

	return c.JSON(TaskResponse{
		Success: true,
		Message: "Задача получена",
		Task:    task,
	})
}

// GetTasks возвращает список задач, опционально по ивенту
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	if _, _, err := tc.getUserFromToken(c); err != nil {
		return c.Status(401).JSON(TasksResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var eventID uint
	if eventParam := c.Query("event_id"); eventParam != "" {
		parsed, err := strconv.ParseUint(eventParam, 10, 32)
		if err != nil {
			return c.Status(400).JSON(TasksResponse{
				Success: false,
				Message: "Неверный ID ивента",
			})
		}
		eventID = uint(parsed)
	}

	tasks, err := tc.Tasks.ListTasks(eventID)
	if err != nil {
		return c.Status(500).JSON(TasksResponse{
			Success: false,
			Message: "Ошибка при получении задач",
		})
	}

	return c.JSON(TasksResponse{
		Success: true,
		Message: "Задачи получены",
		Tasks:   tasks,
	})
}

// AddLine добавляет в задачу выдачи позицию вне резервирования
func (tc *TaskController) AddLine(c *fiber.Ctx) error {
	userID, _, err := tc.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(LineResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(LineResponse{
			Success: false,
			Message: "Неверный ID задачи",
		})
	}

	var req AddLineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(LineResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	line, err := tc.Tasks.AddLine(uint(taskID), req.ItemID, req.Quantity, userID)
	if err != nil {
		status, message := mapTaskError(err)
		return c.Status(status).JSON(LineResponse{
			Success: false,
			Message: message,
		})
	}

	return c.Status(201).JSON(LineResponse{
		Success: true,
		Message: "Позиция успешно добавлена",
		Line:    line,
	})
}

// UpdateLine обновляет позицию задачи (количество, статус, причина)
func (tc *TaskController) UpdateLine(c *fiber.Ctx) error {
	userID, _, err := tc.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(LineResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	lineID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(LineResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var req UpdateLineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(LineResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	line, err := tc.Tasks.UpdateLine(uint(lineID), req.ActualQuantity, req.Status, userID, req.Reason)
	if err != nil {
		status, message := mapTaskError(err)
		return c.Status(status).JSON(LineResponse{
			Success: false,
			Message: message,
		})
	}

	// Уведомляем подключенных клиентов об изменении остатка при приемке
	if tc.Hub != nil && line.Status == models.LineStatusCheckedIn {
		if item, err := tc.Tasks.GetLineItem(line); err == nil {
			tc.Hub.BroadcastStockUpdate(item)
		}
	}

	return c.JSON(LineResponse{
		Success: true,
		Message: "Позиция успешно обновлена",
		Line:    line,
	})
}

// CompleteTask завершает задачу выдачи (или фиксирует завершение приемки)
func (tc *TaskController) CompleteTask(c *fiber.Ctx) error {
	userID, _, err := tc.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(TaskResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TaskResponse{
			Success: false,
			Message: "Неверный ID задачи",
		})
	}

	task, err := tc.Tasks.CompleteTask(uint(taskID), userID)
	if err != nil {
		// Частичное завершение отдаем с детализацией по позициям
		var partial *services.PartialCompletionError
		if errors.As(err, &partial) {
			return c.Status(409).JSON(PartialCompletionResponse{
				Success:        false,
				Message:        "Задача завершена частично, повторите завершение после устранения причины",
				CompletedLines: partial.CompletedLines,
				FailedLineID:   partial.Failure.LineID,
				FailedItemID:   partial.Failure.ItemID,
			})
		}

		status, message := mapTaskError(err)
		return c.Status(status).JSON(TaskResponse{
			Success: false,
			Message: message,
		})
	}

	if tc.Hub != nil {
		tc.Hub.BroadcastTaskCompleted(task)
	}

	return c.JSON(TaskResponse{
		Success: true,
		Message: "Задача успешно завершена",
		Task:    task,
	})
}

// CancelTask отменяет задачу до завершения
func (tc *TaskController) CancelTask(c *fiber.Ctx) error {
	userID, _, err := tc.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(TaskResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	taskID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TaskResponse{
			Success: false,
			Message: "Неверный ID задачи",
		})
	}

	task, err := tc.Tasks.CancelTask(uint(taskID), userID)
	if err != nil {
		status, message := mapTaskError(err)
		return c.Status(status).JSON(TaskResponse{
			Success: false,
			Message: message,
		})
	}

	return c.JSON(TaskResponse{
		Success: true,
		Message: "Задача отменена",
		Task:    task,
	})
}

// getUserFromToken извлекает ID и роль пользователя из JWT токена
func (tc *TaskController) getUserFromToken(c *fiber.Ctx) (uint, string, error) {
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
