package controllers

import (
	"errors"

	"sklad-backend/services"

	"gorm.io/gorm"
)

// mapLedgerError переводит ошибки склада в HTTP статус и сообщение
func mapLedgerError(err error) (int, string) {
	var versionConflict *services.VersionConflictError
	var negativeStock *services.NegativeStockError

	switch {
	case errors.As(err, &versionConflict):
		return 409, "Позиция изменена параллельной операцией, обновите данные и повторите"
	case errors.As(err, &negativeStock):
		return 409, "Недостаточный остаток на складе"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 404, "Позиция не найдена"
	}

	return 500, "Ошибка при изменении остатка"
}

// mapTaskError переводит ошибки машины состояний задач в HTTP статус и сообщение
func mapTaskError(err error) (int, string) {
	var reasonRequired *services.ReasonRequiredError
	var outOfRange *services.QuantityOutOfRangeError
	var insufficientStock *services.InsufficientStockError
	var eventNotFound *services.EventNotFoundError
	var nothingToCheckIn *services.NothingToCheckInError
	var partialCompletion *services.PartialCompletionError
	var versionConflict *services.VersionConflictError
	var negativeStock *services.NegativeStockError

	switch {
	case errors.As(err, &reasonRequired):
		return 400, "Требуется указать причину расхождения количества"
	case errors.As(err, &outOfRange):
		return 400, err.Error()
	case errors.As(err, &insufficientStock):
		return 400, err.Error()
	case errors.As(err, &eventNotFound):
		return 404, "Ивент не найден"
	case errors.As(err, &nothingToCheckIn):
		return 404, "По ивенту нет выданных позиций для приемки"
	case errors.As(err, &partialCompletion):
		return 409, err.Error()
	case errors.As(err, &versionConflict):
		return 409, "Позиция изменена параллельной операцией, обновите данные и повторите"
	case errors.As(err, &negativeStock):
		return 409, "Недостаточный остаток на складе"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 404, "Запись не найдена"
	}

	return 400, err.Error()
}
