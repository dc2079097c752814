package orders_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meucardapio/pedidos-app/orders"
)

func TestNormalizePaymentMethodFoldsCaseAndSpacing(t *testing.T) {
	for input, want := range map[string]orders.PaymentMethod{
		"dinheiro": orders.PaymentCash,
		" Pix ":    orders.PaymentPix,
		"CARTAO":   orders.PaymentCard,
	} {
		got, ok := orders.NormalizePaymentMethod(input)
		require.True(t, ok, "input %q", input)
		assert.Equal(t, want, got)
	}
}

func TestNormalizePaymentMethodRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "   ", "cheque", "cartão de crédito", strings.Repeat("p", 33)} {
		_, ok := orders.NormalizePaymentMethod(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestPaymentMethodLabels(t *testing.T) {
	assert.Equal(t, "Dinheiro", orders.PaymentMethodLabel(orders.PaymentCash))
	assert.Equal(t, "Pix", orders.PaymentMethodLabel(orders.PaymentPix))
	assert.Equal(t, "Cartão", orders.PaymentMethodLabel(orders.PaymentCard))
	assert.Len(t, orders.PaymentMethods(), 3)
}
