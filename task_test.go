package main

import (
	"errors"
	"testing"

	"sklad-backend/models"
	"sklad-backend/services"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutTaskLifecycle(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)
	audit := services.NewAuditService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	// Создание задачи копирует резервирования в позиции, остаток не меняется
	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Len(t, task.Lines, 1)
	assert.Equal(t, 5, task.Lines[0].OriginalQuantity)
	assert.Equal(t, 5, task.Lines[0].ActualQuantity)
	assert.Equal(t, models.LineStatusPending, task.Lines[0].Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 20, current.Quantity)

	// Завершение списывает остаток и пишет запись аудита
	completed, err := tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, models.LineStatusChecked, completed.Lines[0].Status)

	db.First(&current, item.ID)
	assert.Equal(t, 15, current.Quantity)
	assert.Equal(t, uint(1), current.Version)

	entries, err := audit.QueryByTask(task.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionCheckout, entries[0].Action)
	assert.Equal(t, -5, entries[0].QuantityDelta)
	assert.Equal(t, user.ID, entries[0].UserID)
}

func TestCompleteTaskIdempotent(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)
	audit := services.NewAuditService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)

	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)

	// Повторное завершение не списывает повторно и не добавляет записей аудита
	again, err := tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, again.Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 15, current.Quantity)

	entries, err := audit.QueryByTask(task.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckoutLineAdjustBeforeComplete(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)

	// Корректировка фактического количества до завершения
	line, err := tasks.UpdateLine(task.Lines[0].ID, 3, "", user.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, 3, line.ActualQuantity)
	assert.Equal(t, models.LineStatusPending, line.Status)

	// Выше резерва нельзя
	_, err = tasks.UpdateLine(task.Lines[0].ID, 6, "", user.ID, "")
	assert.Error(t, err)

	var outOfRange *services.QuantityOutOfRangeError
	assert.True(t, errors.As(err, &outOfRange))
	assert.Equal(t, 5, outOfRange.Max)

	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 17, current.Quantity)
}

func TestCompleteTaskInsufficientStock(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	ledger := services.NewLedgerService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)

	// Параллельная корректировка уменьшает остаток ниже резерва
	_, err = ledger.ApplyDelta(item.ID, -18, item.Version)
	assert.NoError(t, err)

	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.Error(t, err)

	var outOfRange *services.QuantityOutOfRangeError
	assert.True(t, errors.As(err, &outOfRange))
	assert.Equal(t, 2, outOfRange.Max)

	// Задача осталась открытой, остаток не тронут
	reloaded, err := tasks.GetTask(task.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, reloaded.Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 2, current.Quantity)
}

func TestPartialCompletion(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	ledger := services.NewLedgerService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	tent := createTestItem(db, "Палатка", category.ID, 20)
	lamp := createTestItem(db, "Фонарик", category.ID, 10)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, tent.ID, 5)
	assert.NoError(t, err)
	_, err = reservations.AddReservation(event.ID, lamp.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	assert.Len(t, task.Lines, 2)

	// Вторая позиция не проходит по остатку
	_, err = ledger.ApplyDelta(lamp.ID, -8, lamp.Version)
	assert.NoError(t, err)

	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.Error(t, err)

	var partial *services.PartialCompletionError
	assert.True(t, errors.As(err, &partial))
	assert.Equal(t, task.ID, partial.TaskID)
	assert.Equal(t, []uint{task.Lines[0].ID}, partial.CompletedLines)
	assert.Equal(t, task.Lines[1].ID, partial.Failure.LineID)
	assert.Equal(t, lamp.ID, partial.Failure.ItemID)

	// Первая позиция уже списана
	var current models.Item
	db.First(&current, tent.ID)
	assert.Equal(t, 15, current.Quantity)

	// После корректировки второй позиции задача доводится до конца
	_, err = tasks.UpdateLine(task.Lines[1].ID, 2, "", user.ID, "")
	assert.NoError(t, err)

	completed, err := tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, completed.Status)

	db.First(&current, tent.ID)
	assert.Equal(t, 15, current.Quantity) // первая позиция не списана повторно
	var currentLamp models.Item
	db.First(&currentLamp, lamp.ID)
	assert.Equal(t, 0, currentLamp.Quantity)
}

func TestCheckinFullReturn(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)
	audit := services.NewAuditService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	// Приемка зеркалит выданные позиции
	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskTypeCheckin, checkin.Type)
	assert.Len(t, checkin.Lines, 1)
	assert.Equal(t, 5, checkin.Lines[0].OriginalQuantity)
	assert.Equal(t, models.LineStatusChecked, checkin.Lines[0].Status)
	assert.NotNil(t, checkin.Lines[0].SourceLineID)

	// Полный возврат не требует причины
	line, err := tasks.UpdateLine(checkin.Lines[0].ID, 5, models.LineStatusCheckedIn, user.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, models.LineStatusCheckedIn, line.Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 20, current.Quantity)

	// Последняя позиция завершает задачу приемки
	reloaded, err := tasks.GetTask(checkin.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.CompletedAt)

	entries, err := audit.QueryByTask(checkin.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionCheckin, entries[0].Action)
	assert.Equal(t, 5, entries[0].QuantityDelta)
}

func TestCheckinShortReturnRequiresReason(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)
	audit := services.NewAuditService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)
	lineID := checkin.Lines[0].ID

	// Недостача без причины отклоняется, остаток не меняется
	_, err = tasks.UpdateLine(lineID, 3, models.LineStatusCheckedIn, user.ID, "")
	assert.Error(t, err)

	var reasonRequired *services.ReasonRequiredError
	assert.True(t, errors.As(err, &reasonRequired))
	assert.Equal(t, 5, reasonRequired.OriginalQuantity)
	assert.Equal(t, 3, reasonRequired.ActualQuantity)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 15, current.Quantity)

	// С причиной приемка проходит
	line, err := tasks.UpdateLine(lineID, 3, models.LineStatusCheckedIn, user.ID, "Две палатки порваны")
	assert.NoError(t, err)
	assert.Equal(t, models.LineStatusCheckedIn, line.Status)
	assert.Equal(t, "Две палатки порваны", line.Reason)

	db.First(&current, item.ID)
	assert.Equal(t, 18, current.Quantity)

	// Недостача фиксируется отдельным действием в журнале
	entries, err := audit.QueryByTask(checkin.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionQuantityMismatch, entries[0].Action)
	assert.Equal(t, 3, entries[0].QuantityDelta)
	assert.Equal(t, "Две палатки порваны", entries[0].Reason)
}

func TestCheckinConsumableShortReturnNoReason(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Расходные материалы", true)
	item := createTestItem(db, "Мешки для мусора", category.ID, 100)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 50)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)

	// Частичный расход расходных материалов не требует причины
	line, err := tasks.UpdateLine(checkin.Lines[0].ID, 10, models.LineStatusCheckedIn, user.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, models.LineStatusCheckedIn, line.Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 60, current.Quantity)
}

func TestCheckinOverReturnRejected(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)

	_, err = tasks.UpdateLine(checkin.Lines[0].ID, 6, models.LineStatusCheckedIn, user.ID, "")
	assert.Error(t, err)

	var outOfRange *services.QuantityOutOfRangeError
	assert.True(t, errors.As(err, &outOfRange))
	assert.Equal(t, 5, outOfRange.Max)
}

func TestCheckinNoDoubleMirror(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)

	// Пока открыта приемка, повторное зеркалирование невозможно
	_, err = tasks.CreateCheckinTask(event.ID, user.ID)
	assert.Error(t, err)

	var nothing *services.NothingToCheckInError
	assert.True(t, errors.As(err, &nothing))

	// И после приемки позиция выдачи больше не зеркалится
	_, err = tasks.UpdateLine(checkin.Lines[0].ID, 5, models.LineStatusCheckedIn, user.ID, "")
	assert.NoError(t, err)

	_, err = tasks.CreateCheckinTask(event.ID, user.ID)
	assert.True(t, errors.As(err, &nothing))
}

func TestCheckinCancelledLineCanBeMirroredAgain(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	checkout, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(checkout.ID, user.ID)
	assert.NoError(t, err)

	checkin, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)

	// Отмена позиции приемки не трогает остаток и завершает задачу
	line, err := tasks.UpdateLine(checkin.Lines[0].ID, 0, models.LineStatusCancelled, user.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, models.LineStatusCancelled, line.Status)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 15, current.Quantity)

	// Исходная позиция выдачи осталась выданной и зеркалится в новой приемке
	second, err := tasks.CreateCheckinTask(event.ID, user.ID)
	assert.NoError(t, err)
	assert.Len(t, second.Lines, 1)
	assert.Equal(t, 5, second.Lines[0].OriginalQuantity)
}

func TestAddLineManual(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Лопата", category.ID, 15)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	// Задача без резервирований создается пустой
	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)
	assert.Len(t, task.Lines, 0)

	line, err := tasks.AddLine(task.ID, item.ID, 3, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, line.OriginalQuantity)
	assert.Equal(t, models.LineStatusPending, line.Status)
	assert.Nil(t, line.ReservationID)

	// Количество вне диапазона отклоняется
	_, err = tasks.AddLine(task.ID, item.ID, 0, user.ID)
	assert.Error(t, err)
	_, err = tasks.AddLine(task.ID, item.ID, 16, user.ID)
	assert.Error(t, err)

	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.NoError(t, err)

	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 12, current.Quantity)
}

func TestCancelTask(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	item := createTestItem(db, "Палатка", category.ID, 20)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, item.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)

	cancelled, err := tasks.CancelTask(task.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, cancelled.Status)
	assert.Equal(t, models.LineStatusCancelled, cancelled.Lines[0].Status)

	// Отмена не трогает остаток
	var current models.Item
	db.First(&current, item.ID)
	assert.Equal(t, 20, current.Quantity)

	// Отмененную задачу нельзя ни завершить, ни отменить повторно
	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.Error(t, err)
	_, err = tasks.CancelTask(task.ID, user.ID)
	assert.Error(t, err)
}

func TestCancelTaskWithDebitedLinesRefused(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)
	ledger := services.NewLedgerService(db)
	reservations := services.NewReservationService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)
	category := createTestCategory(db, "Снаряжение", false)
	tent := createTestItem(db, "Палатка", category.ID, 20)
	lamp := createTestItem(db, "Фонарик", category.ID, 10)
	event := createTestEvent(db, "Субботник в парке", user.ID)

	_, err := reservations.AddReservation(event.ID, tent.ID, 5)
	assert.NoError(t, err)
	_, err = reservations.AddReservation(event.ID, lamp.ID, 5)
	assert.NoError(t, err)

	task, err := tasks.CreateCheckoutTask(event.ID, "", user.ID)
	assert.NoError(t, err)

	// Доводим задачу до частичного списания
	_, err = ledger.ApplyDelta(lamp.ID, -8, lamp.Version)
	assert.NoError(t, err)
	_, err = tasks.CompleteTask(task.ID, user.ID)
	assert.Error(t, err)

	// Частично списанную выдачу отменять нельзя
	_, err = tasks.CancelTask(task.ID, user.ID)
	assert.Error(t, err)
}

func TestCreateCheckoutTaskByEventName(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)

	// Ивент создается на лету по имени
	task, err := tasks.CreateCheckoutTask(0, "Уборка набережной", user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Уборка набережной", task.Event.Name)
	assert.Len(t, task.Lines, 0)
}

func TestCreateCheckinTaskUnknownEvent(t *testing.T) {
	db := setupTestDB()
	tasks := newTestTaskService(db)

	user := createTestUser(db, "operator@test.com", models.RoleOperator)

	_, err := tasks.CreateCheckinTask(999, user.ID)
	assert.Error(t, err)

	var notFound *services.EventNotFoundError
	assert.True(t, errors.As(err, &notFound))
}
