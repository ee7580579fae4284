package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to success", OrderStatusPending, OrderStatusSuccess, true},
		{"pending to failed", OrderStatusPending, OrderStatusFailed, true},
		{"pending to refund", OrderStatusPending, OrderStatusRefund, false},
		{"success to refund", OrderStatusSuccess, OrderStatusRefund, true},
		{"success to failed", OrderStatusSuccess, OrderStatusFailed, false},
		{"success to pending", OrderStatusSuccess, OrderStatusPending, false},
		{"failed is terminal", OrderStatusFailed, OrderStatusPending, false},
		{"refund is terminal", OrderStatusRefund, OrderStatusSuccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderBeneficiary(t *testing.T) {
	t.Run("defaults to the ordering user", func(t *testing.T) {
		order := Order{UserID: 1}
		assert.Equal(t, 1, order.Beneficiary())
	})

	t.Run("prefers the attached customer", func(t *testing.T) {
		customerId := 2
		order := Order{UserID: 1, CustomerID: &customerId}
		assert.Equal(t, 2, order.Beneficiary())
	})
}
