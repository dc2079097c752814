package orders

import "strings"

// PaymentMethod is a label only; no transaction capture happens here.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "dinheiro"
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "cartao"
)

const maxPaymentMethodInputLength = 32

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentCash: "Dinheiro",
	PaymentPix:  "Pix",
	PaymentCard: "Cartão",
}

// PaymentMethods lists the accepted values in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentPix, PaymentCard}
}

// PaymentMethodLabel returns the display label for a known method.
func PaymentMethodLabel(m PaymentMethod) string {
	return paymentMethodLabels[m]
}

// NormalizePaymentMethod folds user input onto the fixed enumerated set.
// Unrecognized or oversized values are rejected, not silently dropped.
func NormalizePaymentMethod(value string) (PaymentMethod, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) > maxPaymentMethodInputLength {
		return "", false
	}
	method := PaymentMethod(strings.ToLower(trimmed))
	if _, ok := paymentMethodLabels[method]; !ok {
		return "", false
	}
	return method, true
}
