package main

import (
	"log"
	"os"
	"time"

	"sklad-backend/controllers"
	"sklad-backend/models"
	"sklad-backend/routes"
	"sklad-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

func main() {
	// Инициализация базы данных
	db, err := models.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Автомиграция
	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Item{}, &models.Event{}, &models.EventReservation{}, &models.CheckoutTask{}, &models.CheckoutLine{}, &models.AuditLogEntry{})

	// Инициализация базовых категорий и инвентаря
	initDefaultCategories(db)
	initDefaultItems(db)

	// Создание Fiber приложения
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"code":    code,
			})
		},
	})

	// Middleware
	app.Use(logger.New())

	// CORS настройки
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Инициализация сервисов ядра
	ledgerService := services.NewLedgerService(db)
	auditService := services.NewAuditService(db)
	reservationService := services.NewReservationService(db)
	taskService := services.NewTaskService(db, ledgerService, auditService, reservationService)

	// Инициализация WebSocket хаба
	hub := services.NewHub(db)
	go hub.Run()

	// Инициализация контроллеров
	authController := controllers.NewAuthController(db)
	itemController := controllers.NewItemController(db, ledgerService, hub)
	reservationController := controllers.NewReservationController(db, reservationService)
	taskController := controllers.NewTaskController(db, taskService, hub)
	auditController := controllers.NewAuditController(db, auditService)
	dashboardController := controllers.NewDashboardController(db)

	// Настройка маршрутов
	routes.SetupAuthRoutes(app, authController)
	routes.SetupItemRoutes(app, itemController)
	routes.SetupReservationRoutes(app, reservationController)
	routes.SetupTaskRoutes(app, taskController)
	routes.SetupAuditRoutes(app, auditController)
	routes.SetupDashboardRoutes(app, dashboardController)

	// WebSocket маршрут
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.HandleWebSocket(c)
	}))

	// Общий health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "Sklad Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	// Запуск сервера
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

// initDefaultCategories инициализирует базовые категории инвентаря
func initDefaultCategories(db *gorm.DB) {
	// Возвратный инвентарь требует причину при недостаче, расходный - нет
	defaultCategories := []models.Category{
		{Name: "Инструменты", IsConsumable: false, IsActive: true},
		{Name: "Снаряжение", IsConsumable: false, IsActive: true},
		{Name: "Электроника", IsConsumable: false, IsActive: true},
		{Name: "Защитная одежда", IsConsumable: false, IsActive: true},
		{Name: "Расходные материалы", IsConsumable: true, IsActive: true},
		{Name: "Продукты", IsConsumable: true, IsActive: true},
	}

	// Проверяем, есть ли уже категории в базе
	var count int64
	db.Model(&models.Category{}).Count(&count)

	if count == 0 {
		log.Println("Инициализация базовых категорий...")
		for _, category := range defaultCategories {
			if err := db.Create(&category).Error; err != nil {
				log.Printf("Ошибка при создании категории '%s': %v", category.Name, err)
			} else {
				log.Printf("Создана категория: %s", category.Name)
			}
		}
		log.Println("Базовые категории инициализированы")
	} else {
		log.Printf("Базовые категории уже существуют (%d элементов)", count)
	}
}

// initDefaultItems инициализирует базовый инвентарь на складе
func initDefaultItems(db *gorm.DB) {
	// Проверяем, есть ли уже инвентарь в базе
	var count int64
	db.Model(&models.Item{}).Count(&count)

	if count != 0 {
		log.Printf("Базовый инвентарь уже существует (%d элементов)", count)
		return
	}

	// Сопоставляем категории по именам
	var categories []models.Category
	db.Find(&categories)
	categoryByName := make(map[string]uint)
	for _, category := range categories {
		categoryByName[category.Name] = category.ID
	}

	defaultItems := []struct {
		Name     string
		Category string
		Quantity int
	}{
		{"Палатка", "Снаряжение", 20},
		{"Спальный мешок", "Снаряжение", 30},
		{"Фонарик", "Электроника", 25},
		{"Радио", "Электроника", 10},
		{"Грабли", "Инструменты", 15},
		{"Лопата", "Инструменты", 15},
		{"Перчатки рабочие", "Защитная одежда", 50},
		{"Куртка защитная", "Защитная одежда", 20},
		{"Мешки для мусора", "Расходные материалы", 200},
		{"Вода питьевая", "Продукты", 100},
		{"Снеки", "Продукты", 150},
	}

	log.Println("Инициализация базового инвентаря...")
	for _, def := range defaultItems {
		categoryID, ok := categoryByName[def.Category]
		if !ok {
			log.Printf("Категория '%s' не найдена, позиция '%s' пропущена", def.Category, def.Name)
			continue
		}

		item := models.Item{
			Name:       def.Name,
			CategoryID: categoryID,
			Quantity:   def.Quantity,
			CreatedBy:  0,
			IsActive:   true,
		}
		if err := db.Create(&item).Error; err != nil {
			log.Printf("Ошибка при создании позиции '%s': %v", def.Name, err)
		} else {
			log.Printf("Создана позиция: %s (%d шт.)", def.Name, def.Quantity)
		}
	}
	log.Println("Базовый инвентарь инициализирован")
}
