package services

import "fmt"

// VersionConflictError возникает, когда версия позиции изменилась параллельной операцией.
// Вызывающая сторона должна перечитать данные и повторить операцию самостоятельно,
// ядро никогда не повторяет конфликтующую операцию само.
type VersionConflictError struct {
	ItemID          uint
	ExpectedVersion uint
	ActualVersion   uint
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("конфликт версий для позиции %d: ожидалась версия %d, фактическая %d",
		e.ItemID, e.ExpectedVersion, e.ActualVersion)
}

// NegativeStockError возникает, когда списание привело бы к отрицательному остатку
type NegativeStockError struct {
	ItemID   uint
	Quantity int
	Delta    int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("недостаточный остаток позиции %d: %d + (%d) меньше нуля",
		e.ItemID, e.Quantity, e.Delta)
}

// InsufficientStockError возникает при попытке зарезервировать больше, чем есть на складе
type InsufficientStockError struct {
	ItemID    uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("недостаточно остатка позиции %d: запрошено %d, доступно %d",
		e.ItemID, e.Requested, e.Available)
}

// ReasonRequiredError возникает при недостаче невозвратного инвентаря без указания причины
type ReasonRequiredError struct {
	LineID           uint
	OriginalQuantity int
	ActualQuantity   int
}

func (e *ReasonRequiredError) Error() string {
	return fmt.Sprintf("для позиции %d требуется причина: принято %d из %d",
		e.LineID, e.ActualQuantity, e.OriginalQuantity)
}

// QuantityOutOfRangeError возникает, когда фактическое количество вне допустимого диапазона
type QuantityOutOfRangeError struct {
	LineID   uint
	Quantity int
	Max      int
}

func (e *QuantityOutOfRangeError) Error() string {
	return fmt.Sprintf("недопустимое количество %d для позиции %d: допустимо от 0 до %d",
		e.Quantity, e.LineID, e.Max)
}

// EventNotFoundError возникает, когда ивент не найден и не может быть создан
type EventNotFoundError struct {
	EventID   uint
	EventName string
}

func (e *EventNotFoundError) Error() string {
	if e.EventName != "" {
		return fmt.Sprintf("ивент '%s' не найден", e.EventName)
	}
	return fmt.Sprintf("ивент %d не найден", e.EventID)
}

// NothingToCheckInError возникает, когда по ивенту нет выданных позиций для приемки
type NothingToCheckInError struct {
	EventID uint
}

func (e *NothingToCheckInError) Error() string {
	return fmt.Sprintf("по ивенту %d нет выданных позиций для приемки", e.EventID)
}

// LineFailure описывает отказ обработки одной позиции при завершении задачи
type LineFailure struct {
	LineID uint  `json:"line_id"`
	ItemID uint  `json:"item_id"`
	Err    error `json:"-"`
}

// PartialCompletionError возникает, когда часть позиций задачи уже списана,
// а очередная позиция отклонена складом или журналом аудита.
// Состояние остается видимым: уже списанные позиции помечены, задача не завершена.
type PartialCompletionError struct {
	TaskID         uint
	CompletedLines []uint // ID позиций, по которым списание прошло
	Failure        LineFailure
}

func (e *PartialCompletionError) Error() string {
	return fmt.Sprintf("задача %d завершена частично: %d позиций списано, позиция %d отклонена: %v",
		e.TaskID, len(e.CompletedLines), e.Failure.LineID, e.Failure.Err)
}

// Unwrap возвращает причину отказа последней позиции
func (e *PartialCompletionError) Unwrap() error {
	return e.Failure.Err
}
