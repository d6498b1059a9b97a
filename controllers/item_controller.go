package controllers

import (
	"strconv"
	"strings"

	"sklad-backend/models"
	"sklad-backend/services"
	"sklad-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ItemController контроллер для управления позициями склада и категориями
type ItemController struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
	Hub    *services.Hub
}

// NewItemController создает новый экземпляр ItemController
func NewItemController(db *gorm.DB, ledger *services.LedgerService, hub *services.Hub) *ItemController {
	return &ItemController{DB: db, Ledger: ledger, Hub: hub}
}

// CreateItemRequest структура запроса создания позиции
type CreateItemRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	CategoryID uint   `json:"category_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"min=0"`
}

// UpdateItemRequest структура запроса обновления позиции
type UpdateItemRequest struct {
	Name       string `json:"name"`
	CategoryID uint   `json:"category_id"`
}

// AdjustItemRequest структура запроса административной корректировки остатка
type AdjustItemRequest struct {
	Delta           int    `json:"delta" validate:"required"`
	ExpectedVersion uint   `json:"expected_version"`
	Reason          string `json:"reason"`
}

// CreateCategoryRequest структура запроса создания категории
type CreateCategoryRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	IsConsumable bool   `json:"is_consumable"`
}

// ItemResponse структура ответа с позицией
type ItemResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Item    *models.Item `json:"item,omitempty"`
}

// ItemsResponse структура ответа со списком позиций
type ItemsResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Items   []models.Item `json:"items,omitempty"`
}

// CategoryResponse структура ответа с категорией
type CategoryResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Category *models.Category `json:"category,omitempty"`
}

// CategoriesResponse структура ответа со списком категорий
type CategoriesResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Categories []models.Category `json:"categories,omitempty"`
}

// GetItems возвращает список активных позиций склада
func (ic *ItemController) GetItems(c *fiber.Ctx) error {
	var items []models.Item
	if err := ic.DB.Preload("Category").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return c.Status(500).JSON(ItemsResponse{
			Success: false,
			Message: "Ошибка при получении позиций",
		})
	}

	return c.JSON(ItemsResponse{
		Success: true,
		Message: "Позиции получены",
		Items:   items,
	})
}

// GetItem возвращает позицию по ID
func (ic *ItemController) GetItem(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	item, err := ic.Ledger.GetItem(uint(itemID))
	if err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Позиция не найдена",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Позиция получена",
		Item:    item,
	})
}

// CreateItem создает новую позицию склада (только для администратора)
func (ic *ItemController) CreateItem(c *fiber.Ctx) error {
	userID, role, err := ic.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(ItemResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(ItemResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	var req CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if strings.TrimSpace(req.Name) == "" || req.Quantity < 0 {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Название обязательно, количество не может быть отрицательным",
		})
	}

	// Проверяем существование категории
	var category models.Category
	if err := ic.DB.First(&category, req.CategoryID).Error; err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Категория не найдена",
		})
	}

	item := models.Item{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Quantity:   req.Quantity,
		CreatedBy:  userID,
		IsActive:   true,
	}

	if err := ic.DB.Create(&item).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при создании позиции",
		})
	}

	ic.DB.Preload("Category").First(&item, item.ID)

	return c.Status(201).JSON(ItemResponse{
		Success: true,
		Message: "Позиция успешно создана",
		Item:    &item,
	})
}

// UpdateItem обновляет название и категорию позиции (только для администратора).
// Остаток через этот метод не меняется - для этого есть AdjustItem.
func (ic *ItemController) UpdateItem(c *fiber.Ctx) error {
	_, role, err := ic.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(ItemResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(ItemResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var item models.Item
	if err := ic.DB.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Позиция не найдена",
		})
	}

	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.CategoryID != 0 {
		var category models.Category
		if err := ic.DB.First(&category, req.CategoryID).Error; err != nil {
			return c.Status(400).JSON(ItemResponse{
				Success: false,
				Message: "Категория не найдена",
			})
		}
		item.CategoryID = req.CategoryID
	}

	if err := ic.DB.Save(&item).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при обновлении позиции",
		})
	}

	ic.DB.Preload("Category").First(&item, item.ID)

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Позиция успешно обновлена",
		Item:    &item,
	})
}

// DeleteItem мягко удаляет позицию (только для администратора)
func (ic *ItemController) DeleteItem(c *fiber.Ctx) error {
	_, role, err := ic.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(ItemResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(ItemResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var item models.Item
	if err := ic.DB.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Позиция не найдена",
		})
	}

	item.IsActive = false
	if err := ic.DB.Save(&item).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при удалении позиции",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Позиция успешно удалена",
	})
}

// AdjustItem выполняет административную корректировку остатка через склад:
// то же условное обновление с проверкой версии, что и у задач
func (ic *ItemController) AdjustItem(c *fiber.Ctx) error {
	_, role, err := ic.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(ItemResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(ItemResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var req AdjustItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if req.Delta == 0 {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Дельта не может быть нулевой",
		})
	}

	item, err := ic.Ledger.ApplyDelta(uint(itemID), req.Delta, req.ExpectedVersion)
	if err != nil {
		status, message := mapLedgerError(err)
		return c.Status(status).JSON(ItemResponse{
			Success: false,
			Message: message,
		})
	}

	if ic.Hub != nil {
		ic.Hub.BroadcastStockUpdate(item)
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Остаток успешно скорректирован",
		Item:    item,
	})
}

// GetCategories возвращает список активных категорий
func (ic *ItemController) GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := ic.DB.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(500).JSON(CategoriesResponse{
			Success: false,
			Message: "Ошибка при получении категорий",
		})
	}

	return c.JSON(CategoriesResponse{
		Success: true,
		Message: "Категории получены",
		Categories: categories,
	})
}

// CreateCategory создает новую категорию (только для администратора)
func (ic *ItemController) CreateCategory(c *fiber.Ctx) error {
	_, role, err := ic.getUserFromToken(c)
	if err != nil {
		return c.Status(401).JSON(CategoryResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	if role != models.RoleAdmin {
		return c.Status(403).JSON(CategoryResponse{
			Success: false,
			Message: "Требуются права администратора",
		})
	}

	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Название категории обязательно",
		})
	}

	category := models.Category{
		Name:         req.Name,
		IsConsumable: req.IsConsumable,
		IsActive:     true,
	}

	if err := ic.DB.Create(&category).Error; err != nil {
		return c.Status(500).JSON(CategoryResponse{
			Success: false,
			Message: "Ошибка при создании категории",
		})
	}

	return c.Status(201).JSON(CategoryResponse{
		Success: true,
		Message: "Категория успешно создана",
		Category: &category,
	})
}

// getUserFromToken извлекает ID и роль пользователя из JWT токена
func (ic *ItemController) getUserFromToken(c *fiber.Ctx) (uint, string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, "", fiber.NewError(401, "Отсутствует токен авторизации")
	}

	// Извлекаем токен из заголовка "Bearer <token>"
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
