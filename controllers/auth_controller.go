package controllers

import (
	"regexp"
	"strings"

	"sklad-backend/models"
	"sklad-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController контроллер для аутентификации
type AuthController struct {
	DB *gorm.DB
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// RegisterRequest структура запроса регистрации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"oneof=operator admin"`
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user,omitempty"`
}

// Register обрабатывает регистрацию пользователя
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest

	// Парсим JSON
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	// Валидация
	if err := ac.validateRegisterRequest(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	// Проверяем, существует ли пользователь
	var existingUser models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(req.Email)).First(&existingUser).Error; err == nil {
		return c.Status(409).JSON(AuthResponse{
			Success: false,
			Message: "Пользователь с таким email уже существует",
		})
	}

	// Хэшируем пароль
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	role := req.Role
	if role == "" {
		role = models.RoleOperator
	}

	// Создаем пользователя
	user := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	// Генерируем JWT токен
	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании токена",
		})
	}

	return c.Status(201).JSON(AuthResponse{
		Success: true,
		Message: "Пользователь успешно зарегистрирован",
		Token:   token,
		User: struct {
			ID    uint   `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		}{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

// Login обрабатывает вход пользователя
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest

	// Парсим JSON
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Email и пароль обязательны",
		})
	}

	// Ищем пользователя
	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Неверный email или пароль",
		})
	}

	// Проверяем пароль
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Неверный email или пароль",
		})
	}

	// Проверяем активность пользователя
	if !user.IsActive {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Аккаунт заблокирован",
		})
	}

	// Генерируем JWT токен
	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании токена",
		})
	}

	return c.JSON(AuthResponse{
		Success: true,
		Message: "Успешный вход в систему",
		Token:   token,
		User: struct {
			ID    uint   `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		}{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

// validateRegisterRequest валидирует запрос регистрации
func (ac *AuthController) validateRegisterRequest(req *RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(400, "Имя обязательно")
	}

	if len(req.Name) < 2 || len(req.Name) > 50 {
		return fiber.NewError(400, "Имя должно содержать от 2 до 50 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(req.Email) {
		return fiber.NewError(400, "Неверный формат email")
	}

	if len(req.Password) < 6 {
		return fiber.NewError(400, "Пароль должен содержать не менее 6 символов")
	}

	if req.Role != "" && req.Role != models.RoleOperator && req.Role != models.RoleAdmin {
		return fiber.NewError(400, "Недопустимая роль")
	}

	return nil
}
