package services

import (
	"errors"
	"time"

	"sklad-backend/models"

	"gorm.io/gorm"
)

// TaskService реализует машину состояний задач выдачи и приемки инвентаря.
// Зависимости (склад, журнал аудита, резервирования) передаются явно,
// глобального состояния сервис не держит.
type TaskService struct {
	db           *gorm.DB
	ledger       *LedgerService
	audit        *AuditService
	reservations *ReservationService
}

// NewTaskService создает новый сервис задач
func NewTaskService(db *gorm.DB, ledger *LedgerService, audit *AuditService, reservations *ReservationService) *TaskService {
	return &TaskService{
		db:           db,
		ledger:       ledger,
		audit:        audit,
		reservations: reservations,
	}
}

// GetTask возвращает задачу со всеми позициями
func (s *TaskService) GetTask(taskID uint) (*models.CheckoutTask, error) {
	var task models.CheckoutTask
	err := s.db.Preload("Event").Preload("Creator").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("checkout_lines.id ASC") }).
		Preload("Lines.Item").Preload("Lines.Item.Category").
		First(&task, taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetLineItem возвращает актуальное состояние позиции склада для позиции задачи
func (s *TaskService) GetLineItem(line *models.CheckoutLine) (*models.Item, error) {
	return s.ledger.GetItem(line.ItemID)
}

// ListTasks возвращает задачи, опционально отфильтрованные по ивенту
func (s *TaskService) ListTasks(eventID uint) ([]models.CheckoutTask, error) {
	query := s.db.Preload("Event").Order("created_at DESC")
	if eventID != 0 {
		query = query.Where("event_id = ?", eventID)
	}

	var tasks []models.CheckoutTask
	err := query.Find(&tasks).Error
	return tasks, err
}

// CreateCheckoutTask создает задачу выдачи по ивенту.
// Каждое активное резервирование ивента копируется в позицию задачи,
// фактическое количество изначально равно зарезервированному.
// Остаток склада на этом этапе не меняется.
func (s *TaskService) CreateCheckoutTask(eventID uint, eventName string, userID uint) (*models.CheckoutTask, error) {
	event, err := s.reservations.ResolveOrCreateEvent(eventID, eventName, userID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListReservations(event.ID)
	if err != nil {
		return nil, err
	}

	task := models.CheckoutTask{
		EventID:   event.ID,
		Type:      models.TaskTypeCheckout,
		Status:    models.TaskStatusPending,
		CreatedBy: userID,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, reservation := range reservations {
		reservationID := reservation.ID
		line := models.CheckoutLine{
			TaskID:           task.ID,
			ItemID:           reservation.ItemID,
			ReservationID:    &reservationID,
			OriginalQuantity: reservation.Quantity,
			ActualQuantity:   reservation.Quantity,
			Status:           models.LineStatusPending,
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetTask(task.ID)
}

// CreateCheckinTask создает задачу приемки по ивенту.
// Позиции зеркалят все выданные (checked) позиции задач выдачи этого ивента,
// по которым еще не открыта и не завершена приемка.
func (s *TaskService) CreateCheckinTask(eventID uint, userID uint) (*models.CheckoutTask, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &EventNotFoundError{EventID: eventID}
		}
		return nil, err
	}

	// Выданные позиции без открытого или завершенного зеркала приемки
	var sourceLines []models.CheckoutLine
	err := s.db.
		Where("status = ? AND actual_quantity > 0", models.LineStatusChecked).
		Where("task_id IN (?)", s.db.Model(&models.CheckoutTask{}).
			Select("id").
			Where("event_id = ? AND type = ?", event.ID, models.TaskTypeCheckout)).
		Where("id NOT IN (?)", s.db.Model(&models.CheckoutLine{}).
			Select("source_line_id").
			Where("source_line_id IS NOT NULL AND status IN ?",
				[]string{models.LineStatusChecked, models.LineStatusCheckedIn})).
		Order("id ASC").
		Find(&sourceLines).Error
	if err != nil {
		return nil, err
	}

	if len(sourceLines) == 0 {
		return nil, &NothingToCheckInError{EventID: event.ID}
	}

	task := models.CheckoutTask{
		EventID:   event.ID,
		Type:      models.TaskTypeCheckin,
		Status:    models.TaskStatusPending,
		CreatedBy: userID,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, source := range sourceLines {
		sourceID := source.ID
		line := models.CheckoutLine{
			TaskID:           task.ID,
			ItemID:           source.ItemID,
			ReservationID:    source.ReservationID,
			SourceLineID:     &sourceID,
			OriginalQuantity: source.ActualQuantity,
			ActualQuantity:   source.ActualQuantity,
			Status:           models.LineStatusChecked,
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetTask(task.ID)
}

// AddLine добавляет в задачу выдачи позицию вне резервирования
func (s *TaskService) AddLine(taskID, itemID uint, quantity int, userID uint) (*models.CheckoutLine, error) {
	var task models.CheckoutTask
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, err
	}

	if task.Type != models.TaskTypeCheckout {
		return nil, errors.New("позиции вручную добавляются только в задачи выдачи")
	}
	if task.Status != models.TaskStatusPending {
		return nil, errors.New("задача уже не принимает новые позиции")
	}

	item, err := s.ledger.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 || quantity > item.Quantity {
		return nil, &QuantityOutOfRangeError{Quantity: quantity, Max: item.Quantity}
	}

	line := models.CheckoutLine{
		TaskID:           task.ID,
		ItemID:           itemID,
		OriginalQuantity: quantity,
		ActualQuantity:   quantity,
		Status:           models.LineStatusPending,
	}

	if err := s.db.Create(&line).Error; err != nil {
		return nil, err
	}

	s.db.Preload("Item").Preload("Item.Category").First(&line, line.ID)

	return &line, nil
}

// UpdateLine обновляет позицию задачи.
// Для выдачи корректируется фактическое количество, списание откладывается
// до завершения задачи. Для приемки остаток зачисляется сразу, до перевода
// позиции в статус checked_in, с повторной авторитетной проверкой правил.
func (s *TaskService) UpdateLine(lineID uint, actualQuantity int, targetStatus string, userID uint, reason string) (*models.CheckoutLine, error) {
	var line models.CheckoutLine
	if err := s.db.Preload("Task").First(&line, lineID).Error; err != nil {
		return nil, err
	}

	if line.Task.IsTerminal() {
		return nil, errors.New("задача уже находится в терминальном статусе")
	}
	if line.IsTerminal() && line.Task.Type == models.TaskTypeCheckin {
		return nil, errors.New("позиция уже обработана")
	}
	if line.Status == models.LineStatusCancelled {
		return nil, errors.New("позиция отменена")
	}

	if targetStatus == models.LineStatusCancelled {
		return s.cancelLine(&line, userID)
	}

	switch line.Task.Type {
	case models.TaskTypeCheckout:
		return s.updateCheckoutLine(&line, actualQuantity, userID, reason)
	case models.TaskTypeCheckin:
		if targetStatus != "" && targetStatus != models.LineStatusCheckedIn {
			return nil, errors.New("недопустимый целевой статус для приемки")
		}
		return s.updateCheckinLine(&line, actualQuantity, userID, reason)
	}

	return nil, errors.New("неизвестный тип задачи")
}

// cancelLine переводит позицию в статус cancelled без изменения остатка
func (s *TaskService) cancelLine(line *models.CheckoutLine, userID uint) (*models.CheckoutLine, error) {
	now := time.Now()
	line.Status = models.LineStatusCancelled
	line.CheckedBy = &userID
	line.CheckedAt = &now

	if err := s.db.Save(line).Error; err != nil {
		return nil, err
	}

	// Приемка: задача завершается, когда не осталось открытых позиций
	if line.Task.Type == models.TaskTypeCheckin {
		if err := s.finishCheckinTaskIfDone(s.db, line.TaskID); err != nil {
			return nil, err
		}
	}

	s.db.Preload("Item").Preload("Item.Category").First(line, line.ID)
	return line, nil
}

// updateCheckoutLine корректирует фактическое количество позиции выдачи
func (s *TaskService) updateCheckoutLine(line *models.CheckoutLine, actualQuantity int, userID uint, reason string) (*models.CheckoutLine, error) {
	if line.Status != models.LineStatusPending {
		return nil, errors.New("позиция выдачи уже обработана")
	}

	item, err := s.ledger.GetItem(line.ItemID)
	if err != nil {
		return nil, err
	}

	if !ValidateCheckoutQuantity(actualQuantity, line.OriginalQuantity, item.Quantity) {
		return nil, &QuantityOutOfRangeError{
			LineID:   line.ID,
			Quantity: actualQuantity,
			Max:      CheckoutQuantityLimit(line.OriginalQuantity, item.Quantity),
		}
	}

	line.ActualQuantity = actualQuantity
	if reason != "" {
		line.Reason = reason
	}

	if err := s.db.Save(line).Error; err != nil {
		return nil, err
	}

	s.db.Preload("Item").Preload("Item.Category").First(line, line.ID)
	return line, nil
}

// updateCheckinLine принимает позицию: зачисляет остаток и помечает позицию.
// Зачисление и запись аудита выполняются в одной транзакции с обновлением
// статуса, поэтому частично примененная приемка невозможна.
func (s *TaskService) updateCheckinLine(line *models.CheckoutLine, actualQuantity int, userID uint, reason string) (*models.CheckoutLine, error) {
	if line.Status != models.LineStatusChecked {
		return nil, errors.New("позиция приемки уже обработана")
	}

	if !ValidateCheckinQuantity(actualQuantity, line.OriginalQuantity) {
		return nil, &QuantityOutOfRangeError{
			LineID:   line.ID,
			Quantity: actualQuantity,
			Max:      line.OriginalQuantity,
		}
	}

	// Авторитетная проверка правила причины непосредственно перед зачислением
	item, err := s.ledger.GetItem(line.ItemID)
	if err != nil {
		return nil, err
	}

	if ReasonRequired(item.Category.IsConsumable, line.OriginalQuantity, actualQuantity) && reason == "" {
		return nil, &ReasonRequiredError{
			LineID:           line.ID,
			OriginalQuantity: line.OriginalQuantity,
			ActualQuantity:   actualQuantity,
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Сначала возвращаем остаток на склад, затем помечаем позицию
	if actualQuantity > 0 {
		if _, err := s.ledger.ApplyDeltaTx(tx, line.ItemID, actualQuantity, item.Version); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	action := models.AuditActionCheckin
	if actualQuantity != line.OriginalQuantity {
		action = models.AuditActionQuantityMismatch
	}
	if _, err := s.audit.RecordTx(tx, userID, action, line.ItemID, line.TaskID, actualQuantity, reason); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	line.ActualQuantity = actualQuantity
	line.Status = models.LineStatusCheckedIn
	line.Reason = reason
	line.CheckedBy = &userID
	line.CheckedAt = &now

	if err := tx.Save(line).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Исходная позиция выдачи считается принятой и не зеркалится повторно
	if line.SourceLineID != nil {
		if err := tx.Model(&models.CheckoutLine{}).
			Where("id = ?", *line.SourceLineID).
			Update("status", models.LineStatusCheckedIn).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := s.markCheckinProgress(tx, line.TaskID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.db.Preload("Item").Preload("Item.Category").First(line, line.ID)
	return line, nil
}

// markCheckinProgress переводит задачу приемки в in_progress после первой
// обработанной позиции и в completed, когда открытых позиций не осталось
func (s *TaskService) markCheckinProgress(tx *gorm.DB, taskID uint) error {
	var openCount int64
	if err := tx.Model(&models.CheckoutLine{}).
		Where("task_id = ? AND status IN ?", taskID,
			[]string{models.LineStatusPending, models.LineStatusChecked}).
		Count(&openCount).Error; err != nil {
		return err
	}

	if openCount == 0 {
		now := time.Now()
		return tx.Model(&models.CheckoutTask{}).
			Where("id = ?", taskID).
			Updates(map[string]interface{}{
				"status":       models.TaskStatusCompleted,
				"completed_at": &now,
			}).Error
	}

	return tx.Model(&models.CheckoutTask{}).
		Where("id = ? AND status = ?", taskID, models.TaskStatusPending).
		Update("status", models.TaskStatusInProgress).Error
}

// finishCheckinTaskIfDone завершает задачу приемки, если открытых позиций не осталось
func (s *TaskService) finishCheckinTaskIfDone(tx *gorm.DB, taskID uint) error {
	return s.markCheckinProgress(tx, taskID)
}

// CompleteTask завершает задачу выдачи: каждая открытая позиция списывается
// со склада под контролем версии, на каждое списание пишется запись аудита.
// Повторный вызов идемпотентен: уже обработанные позиции пропускаются,
// завершенная задача возвращается без изменений.
func (s *TaskService) CompleteTask(taskID uint, userID uint) (*models.CheckoutTask, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusCompleted {
		return task, nil
	}
	if task.Status == models.TaskStatusCancelled {
		return nil, errors.New("отмененную задачу завершить нельзя")
	}

	if task.Type == models.TaskTypeCheckin {
		// Приемка завершается по позициям через UpdateLine, здесь только фиксация
		if err := s.finishCheckinTaskIfDone(s.db, task.ID); err != nil {
			return nil, err
		}
		task, err = s.GetTask(taskID)
		if err != nil {
			return nil, err
		}
		if task.Status != models.TaskStatusCompleted {
			return nil, errors.New("в задаче приемки остались необработанные позиции")
		}
		return task, nil
	}

	var completedLines []uint

	for i := range task.Lines {
		line := &task.Lines[i]
		if line.Status != models.LineStatusPending {
			// Идемпотентность: позиция уже списана или отменена
			continue
		}

		if err := s.completeCheckoutLine(line, task.ID, userID); err != nil {
			if len(completedLines) > 0 {
				return nil, &PartialCompletionError{
					TaskID:         task.ID,
					CompletedLines: completedLines,
					Failure:        LineFailure{LineID: line.ID, ItemID: line.ItemID, Err: err},
				}
			}
			return nil, err
		}

		completedLines = append(completedLines, line.ID)
	}

	now := time.Now()
	if err := s.db.Model(&models.CheckoutTask{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"status":       models.TaskStatusCompleted,
			"completed_at": &now,
		}).Error; err != nil {
		return nil, err
	}

	return s.GetTask(task.ID)
}

// completeCheckoutLine списывает одну позицию выдачи в отдельной транзакции:
// списание, запись аудита и смена статуса позиции применяются атомарно
func (s *TaskService) completeCheckoutLine(line *models.CheckoutLine, taskID, userID uint) error {
	item, err := s.ledger.GetItem(line.ItemID)
	if err != nil {
		return err
	}

	// Повторная авторитетная проверка перед списанием
	if !ValidateCheckoutQuantity(line.ActualQuantity, line.OriginalQuantity, item.Quantity) {
		return &QuantityOutOfRangeError{
			LineID:   line.ID,
			Quantity: line.ActualQuantity,
			Max:      CheckoutQuantityLimit(line.OriginalQuantity, item.Quantity),
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if line.ActualQuantity > 0 {
		if _, err := s.ledger.ApplyDeltaTx(tx, line.ItemID, -line.ActualQuantity, item.Version); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := s.audit.RecordTx(tx, userID, models.AuditActionCheckout,
			line.ItemID, taskID, -line.ActualQuantity, line.Reason); err != nil {
			tx.Rollback()
			return err
		}
	}

	now := time.Now()
	if err := tx.Model(&models.CheckoutLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"status":     models.LineStatusChecked,
			"checked_by": userID,
			"checked_at": &now,
		}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	line.Status = models.LineStatusChecked
	return nil
}

// CancelTask отменяет задачу до завершения.
// Выдача к этому моменту остаток не трогала, поэтому отмена ничего не
// возвращает на склад: задача и ее открытые позиции просто помечаются.
func (s *TaskService) CancelTask(taskID uint, userID uint) (*models.CheckoutTask, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	if task.IsTerminal() {
		return nil, errors.New("задача уже находится в терминальном статусе")
	}

	// Частично списанную выдачу отменять нельзя: ее нужно довести до конца
	// повторным вызовом CompleteTask
	if task.Type == models.TaskTypeCheckout {
		for _, line := range task.Lines {
			if line.Status == models.LineStatusChecked {
				return nil, errors.New("по задаче уже есть списанные позиции, отмена невозможна")
			}
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.CheckoutLine{}).
		Where("task_id = ? AND status IN ?", task.ID,
			[]string{models.LineStatusPending, models.LineStatusChecked}).
		Update("status", models.LineStatusCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.CheckoutTask{}).
		Where("id = ?", task.ID).
		Update("status", models.TaskStatusCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetTask(task.ID)
}
