package main

import (
	"sklad-backend/models"
	"sklad-backend/services"
	"sklad-backend/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB создает тестовую базу данных в памяти
func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("Failed to connect to test database")
	}
	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Item{}, &models.Event{},
		&models.EventReservation{}, &models.CheckoutTask{}, &models.CheckoutLine{}, &models.AuditLogEntry{})
	return db
}

// createTestUser создает тестового пользователя с указанной ролью
func createTestUser(db *gorm.DB, email, role string) *models.User {
	user := models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
	}
	db.Create(&user)
	return &user
}

// createTestCategory создает тестовую категорию инвентаря
func createTestCategory(db *gorm.DB, name string, isConsumable bool) *models.Category {
	category := models.Category{
		Name:         name,
		IsConsumable: isConsumable,
		IsActive:     true,
	}
	db.Create(&category)
	return &category
}

// createTestItem создает тестовую позицию склада
func createTestItem(db *gorm.DB, name string, categoryID uint, quantity int) *models.Item {
	item := models.Item{
		Name:       name,
		CategoryID: categoryID,
		Quantity:   quantity,
		IsActive:   true,
	}
	db.Create(&item)
	return &item
}

// createTestEvent создает тестовый ивент
func createTestEvent(db *gorm.DB, name string, creatorID uint) *models.Event {
	event := models.Event{
		Name:      name,
		CreatorID: creatorID,
		IsActive:  true,
	}
	db.Create(&event)
	return &event
}

// newTestTaskService собирает сервис задач со всеми зависимостями
func newTestTaskService(db *gorm.DB) *services.TaskService {
	ledger := services.NewLedgerService(db)
	audit := services.NewAuditService(db)
	reservations := services.NewReservationService(db)
	return services.NewTaskService(db, ledger, audit, reservations)
}

// generateTestJWT создает тестовый JWT токен для пользователя
func generateTestJWT(user *models.User) string {
	token, _ := utils.GenerateJWT(user.ID, user.Email, user.Role)
	return token
}
