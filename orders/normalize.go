package orders

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/meucardapio/pedidos-app/catalog"
)

const (
	maxCustomerNameLength  = 120
	maxCustomerEmailLength = 254
	maxCustomerPhoneLength = 32
	maxNotesLength         = 1000
	maxOrderLineItems      = 50
	maxExtrasPerItem       = 20

	// Quantity cap per merged line. Bounds the line-total multiplication so
	// the int64 snapshot arithmetic can never wrap.
	maxQuantityPerLine = 999
)

// User-facing validation messages. These are the only strings a customer
// ever sees on a rejected submission.
const (
	MsgRequired           = "Preencha nome, e-mail, telefone e selecione pelo menos um item."
	MsgTooLarge           = "Alguns dados do pedido são muito longos. Revise e tente novamente."
	MsgInvalidEmail       = "Informe um e-mail válido."
	MsgInvalidPhone       = "Informe um telefone válido."
	MsgInvalidItems       = "Selecione itens válidos do cardápio para enviar o pedido."
	MsgInvalidPayment     = "Selecione uma forma de pagamento válida."
	MsgPricingUnavailable = "Alguns itens do cardápio estão sem preço no momento. Tente novamente mais tarde."
	MsgSubmitFailed       = "Não foi possível enviar seu pedido agora. Tente novamente em instantes."
	MsgSetupUnavailable   = "Pedidos indisponíveis no momento. Verifique a configuração do serviço."
)

var basicEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var nonDigitPattern = regexp.MustCompile(`\D+`)

// CustomerInput is the raw contact block of a submission, pre-trimming.
type CustomerInput struct {
	Name          string `json:"customerName"`
	Email         string `json:"customerEmail"`
	Phone         string `json:"customerPhone"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"paymentMethod"`
}

// CartLine is one raw cart entry. Quantity arrives as a JSON number and is
// truncated to an integer during validation.
type CartLine struct {
	MenuItemID string   `json:"menuItemId"`
	Quantity   float64  `json:"quantity"`
	ExtraIDs   []string `json:"extraIds"`
}

// ExtraSnapshot is the priced copy of a chosen add-on, captured at
// submission time.
type ExtraSnapshot struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

// OrderItemSnapshot is the denormalized line stored with the order. Catalog
// price changes after submission never touch it.
// Invariant: LineTotalCents == (UnitPriceCents + sum(extras)) * Quantity.
type OrderItemSnapshot struct {
	MenuItemID     string          `json:"menuItemId"`
	Name           string          `json:"name"`
	Quantity       int64           `json:"quantity"`
	UnitPriceCents int64           `json:"unitPriceCents"`
	LineTotalCents int64           `json:"lineTotalCents"`
	Extras         []ExtraSnapshot `json:"extras,omitempty"`
}

// OrderDraft is a fully validated, priced submission ready for persistence.
type OrderDraft struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	EmailNormalized string
	PhoneNormalized string
	Notes           string
	PaymentMethod   PaymentMethod
	Items           []OrderItemSnapshot
}

// TotalCents sums the line totals of the draft.
func (d *OrderDraft) TotalCents() int64 {
	var total int64
	for _, item := range d.Items {
		total += item.LineTotalCents
	}
	return total
}

// Normalize validates and prices a raw submission against the catalog.
// Fail-closed: either the whole cart normalizes or the whole submission is
// rejected with a *SubmitError carrying a user-facing message.
func Normalize(input CustomerInput, lines []CartLine, cat *catalog.Catalog) (*OrderDraft, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	notes := strings.TrimSpace(input.Notes)

	if len(name) > maxCustomerNameLength ||
		len(email) > maxCustomerEmailLength ||
		len(phone) > maxCustomerPhoneLength ||
		len(notes) > maxNotesLength {
		return nil, validationError(MsgTooLarge)
	}

	if name == "" || email == "" || phone == "" {
		return nil, validationError(MsgRequired)
	}

	if !basicEmailPattern.MatchString(email) {
		return nil, validationError(MsgInvalidEmail)
	}

	phoneNormalized := nonDigitPattern.ReplaceAllString(phone, "")
	if phoneNormalized == "" {
		return nil, validationError(MsgInvalidPhone)
	}

	var paymentMethod PaymentMethod
	if strings.TrimSpace(input.PaymentMethod) != "" {
		method, ok := NormalizePaymentMethod(input.PaymentMethod)
		if !ok {
			return nil, validationError(MsgInvalidPayment)
		}
		paymentMethod = method
	}

	items, err := normalizeCartLines(lines, cat)
	if err != nil {
		return nil, err
	}

	return &OrderDraft{
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   phone,
		EmailNormalized: strings.ToLower(email),
		PhoneNormalized: phoneNormalized,
		Notes:           notes,
		PaymentMethod:   paymentMethod,
		Items:           items,
	}, nil
}

type aggregatedLine struct {
	key      string
	snapshot OrderItemSnapshot
}

func normalizeCartLines(lines []CartLine, cat *catalog.Catalog) ([]OrderItemSnapshot, error) {
	if len(lines) == 0 {
		return nil, validationError(MsgRequired)
	}
	if len(lines) > maxOrderLineItems {
		return nil, validationError(MsgInvalidItems)
	}

	byKey := make(map[string]int, len(lines))
	var aggregated []aggregatedLine

	for _, line := range lines {
		menuItemID := strings.TrimSpace(line.MenuItemID)
		quantity, ok := toPositiveInt(line.Quantity)
		if menuItemID == "" || !ok || quantity > maxQuantityPerLine {
			return nil, validationError(MsgInvalidItems)
		}

		item, found := cat.ItemByID(menuItemID)
		if !found {
			return nil, validationError(MsgInvalidItems)
		}

		extraIDs, ok := NormalizeExtraIDs(line.ExtraIDs)
		if !ok || len(extraIDs) > maxExtrasPerItem {
			return nil, validationError(MsgInvalidItems)
		}

		if item.PriceCents == nil || !plausibleCents(*item.PriceCents) {
			return nil, validationError(MsgPricingUnavailable)
		}

		extras := make([]ExtraSnapshot, 0, len(extraIDs))
		var extrasCents int64
		for _, extraID := range extraIDs {
			extra, found := item.ExtraByID(extraID)
			if !found {
				return nil, validationError(MsgInvalidItems)
			}
			if extra.PriceCents == nil || !plausibleCents(*extra.PriceCents) {
				return nil, validationError(MsgPricingUnavailable)
			}
			extras = append(extras, ExtraSnapshot{
				ID:         extra.ID,
				Name:       extra.Name,
				PriceCents: *extra.PriceCents,
			})
			extrasCents += *extra.PriceCents
		}

		key := aggregationKey(menuItemID, extraIDs)
		if idx, exists := byKey[key]; exists {
			merged := &aggregated[idx].snapshot
			merged.Quantity += quantity
			if merged.Quantity > maxQuantityPerLine {
				return nil, validationError(MsgInvalidItems)
			}
			merged.LineTotalCents = (merged.UnitPriceCents + extrasCents) * merged.Quantity
			if !plausibleCents(merged.LineTotalCents) {
				return nil, validationError(MsgInvalidItems)
			}
			continue
		}

		unit := *item.PriceCents
		lineTotal := (unit + extrasCents) * quantity
		if !plausibleCents(lineTotal) {
			return nil, validationError(MsgInvalidItems)
		}
		byKey[key] = len(aggregated)
		aggregated = append(aggregated, aggregatedLine{
			key: key,
			snapshot: OrderItemSnapshot{
				MenuItemID:     menuItemID,
				Name:           item.Name,
				Quantity:       quantity,
				UnitPriceCents: unit,
				LineTotalCents: lineTotal,
				Extras:         extras,
			},
		})
	}

	// Output order is stable for identical input: sorted by the merge key
	// (menuItemId, canonical extra ids), not by input order.
	sort.Slice(aggregated, func(i, j int) bool {
		return aggregated[i].key < aggregated[j].key
	})

	items := make([]OrderItemSnapshot, len(aggregated))
	for i, entry := range aggregated {
		items[i] = entry.snapshot
	}
	return items, nil
}

// NormalizeExtraIDs canonicalizes a raw extra-id list: trims entries,
// deduplicates case-sensitively and sorts with pt-BR collation so that two
// lines with the same extras always produce the same merge key. A nil list
// is an empty selection; an empty-string entry invalidates the list.
func NormalizeExtraIDs(ids []string) ([]string, bool) {
	if len(ids) == 0 {
		return nil, true
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, false
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	collate.New(language.BrazilianPortuguese).SortStrings(unique)
	return unique, true
}

func aggregationKey(menuItemID string, extraIDs []string) string {
	return menuItemID + "::" + strings.Join(extraIDs, "|")
}

func toPositiveInt(value float64) (int64, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value >= math.MaxInt64 {
		return 0, false
	}
	truncated := int64(math.Trunc(value))
	if truncated <= 0 {
		return 0, false
	}
	return truncated, true
}
