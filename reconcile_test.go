package main

import (
	"testing"

	"sklad-backend/services"

	"github.com/stretchr/testify/assert"
)

func TestReasonRequired(t *testing.T) {
	// Невозвратный инвентарь: причина нужна только при расхождении
	assert.False(t, services.ReasonRequired(false, 5, 5))
	assert.True(t, services.ReasonRequired(false, 5, 3))
	assert.True(t, services.ReasonRequired(false, 5, 0))

	// Расходные материалы: причина не нужна никогда
	assert.False(t, services.ReasonRequired(true, 5, 5))
	assert.False(t, services.ReasonRequired(true, 5, 3))
	assert.False(t, services.ReasonRequired(true, 5, 0))
}

func TestValidateCheckoutQuantity(t *testing.T) {
	// Ограничение резервом при достаточном остатке
	assert.True(t, services.ValidateCheckoutQuantity(5, 5, 20))
	assert.True(t, services.ValidateCheckoutQuantity(0, 5, 20))
	assert.False(t, services.ValidateCheckoutQuantity(6, 5, 20))

	// Ограничение остатком при недостатке на складе
	assert.True(t, services.ValidateCheckoutQuantity(3, 5, 3))
	assert.False(t, services.ValidateCheckoutQuantity(4, 5, 3))

	// Отрицательное количество недопустимо
	assert.False(t, services.ValidateCheckoutQuantity(-1, 5, 20))
}

func TestValidateCheckinQuantity(t *testing.T) {
	assert.True(t, services.ValidateCheckinQuantity(5, 5))
	assert.True(t, services.ValidateCheckinQuantity(0, 5))
	assert.True(t, services.ValidateCheckinQuantity(3, 5))

	// Вернуть больше выданного нельзя
	assert.False(t, services.ValidateCheckinQuantity(6, 5))
	assert.False(t, services.ValidateCheckinQuantity(-1, 5))
}

func TestCheckoutQuantityLimit(t *testing.T) {
	assert.Equal(t, 5, services.CheckoutQuantityLimit(5, 20))
	assert.Equal(t, 3, services.CheckoutQuantityLimit(5, 3))
	assert.Equal(t, 0, services.CheckoutQuantityLimit(5, 0))
}
