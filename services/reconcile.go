package services

// Правила сверки выдачи и приемки. Функции чистые: они не обращаются к базе
// и вызываются дважды - на пути валидации запроса и повторно непосредственно
// перед изменением остатка, чтобы гонка двух операторов не обошла правило.

// ReasonRequired возвращает true, если для приемки требуется указать причину.
// Причина обязательна только для невозвратного инвентаря при расхождении
// фактического количества с выданным. Для расходных материалов причина
// не требуется: их частичный расход ожидаем.
func ReasonRequired(isConsumable bool, originalQuantity, actualQuantity int) bool {
	return !isConsumable && actualQuantity != originalQuantity
}

// ValidateCheckoutQuantity проверяет количество для выдачи.
// Действует строжайшее из двух ограничений: резерв и текущий остаток.
func ValidateCheckoutQuantity(actual, reserved, onHand int) bool {
	if actual < 0 {
		return false
	}
	max := reserved
	if onHand < max {
		max = onHand
	}
	return actual <= max
}

// ValidateCheckinQuantity проверяет количество для приемки.
// Вернуть больше, чем было выдано, нельзя.
func ValidateCheckinQuantity(actual, original int) bool {
	return actual >= 0 && actual <= original
}

// CheckoutQuantityLimit возвращает максимально допустимое количество для выдачи
func CheckoutQuantityLimit(reserved, onHand int) int {
	if onHand < reserved {
		return onHand
	}
	return reserved
}
