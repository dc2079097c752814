package orders

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Display-safety caps for persisted payloads. Historical rows are untrusted:
// the admin UI must stay bounded no matter what was stored.
const (
	maxAdminExtrasPerItem   = 20
	maxAdminExtraNameLength = 120
	maxAdminExtraIDLength   = 80

	// Upper plausibility bound for any stored cents value (R$ 100.000,00).
	// Values beyond it make the whole order total unavailable.
	maxPlausibleCents = 10_000_000
)

const (
	missingCustomerName = "Cliente não informado"
	missingContactField = "Não informado"
	missingDateLabel    = "Data não informada"
	invalidDateLabel    = "Data inválida"
)

// AdminOrderExtra is a display-safe add-on of a stored line.
type AdminOrderExtra struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// AdminOrderItem is a display-safe stored line.
type AdminOrderItem struct {
	Name     string            `json:"name"`
	Quantity int64             `json:"quantity"`
	Extras   []AdminOrderExtra `json:"extras,omitempty"`
}

// AdminOrder is the bounded model served to the staff dashboard. TotalCents
// is nil whenever any line's pricing cannot be fully resolved: a partial sum
// would display a misleadingly low total for legacy orders.
type AdminOrder struct {
	ID             string           `json:"id"`
	Reference      string           `json:"reference"`
	CreatedAtISO   *string          `json:"createdAtIso"`
	CreatedAtLabel string           `json:"createdAtLabel"`
	CustomerName   string           `json:"customerName"`
	CustomerEmail  string           `json:"customerEmail"`
	CustomerPhone  string           `json:"customerPhone"`
	Items          []AdminOrderItem `json:"items"`
	Status         *Status          `json:"status"`
	StatusLabel    string           `json:"statusLabel"`
	RawStatus      *string          `json:"rawStatus"`
	Notes          *string          `json:"notes"`
	TotalCents     *int64           `json:"totalCents"`
}

// ParseAdminOrders parses persisted rows, dropping only the ones without a
// usable identifier.
func ParseAdminOrders(rows []map[string]any) []AdminOrder {
	parsed := make([]AdminOrder, 0, len(rows))
	for i, row := range rows {
		if order := ParseAdminOrder(row, i); order != nil {
			parsed = append(parsed, *order)
		}
	}
	return parsed
}

// ParseAdminOrder defensively parses one persisted order row, tolerating
// historical and legacy shapes. Returns nil only when the row carries no
// usable identifier.
func ParseAdminOrder(row map[string]any, fallbackIndex int) *AdminOrder {
	if row == nil {
		return nil
	}

	id := stringValue(row["id"])
	if id == "" {
		id = stringValue(row["reference"])
	}
	if id == "" {
		return nil
	}

	reference := stringValue(row["reference"])
	if reference == "" {
		reference = fmt.Sprintf("Pedido #%d", fallbackIndex+1)
	}

	createdISO, createdLabel := parseCreatedAt(firstPresent(row, "created_at", "createdAt"))
	statusInfo := StatusFromUnknown(stringValue(row["status"]))

	order := &AdminOrder{
		ID:             id,
		Reference:      reference,
		CreatedAtISO:   createdISO,
		CreatedAtLabel: createdLabel,
		CustomerName:   fallbackString(row, missingCustomerName, "customer_name", "customerName"),
		CustomerEmail:  fallbackString(row, missingContactField, "customer_email", "customerEmail"),
		CustomerPhone:  fallbackString(row, missingContactField, "customer_phone", "customerPhone"),
		StatusLabel:    statusInfo.Label,
	}
	if statusInfo.Known {
		status := statusInfo.Status
		order.Status = &status
	}
	if raw := strings.TrimSpace(statusInfo.Raw); raw != "" {
		order.RawStatus = &statusInfo.Raw
	}
	if notes := fallbackString(row, "", "notes", "observacoes"); notes != "" {
		order.Notes = &notes
	}

	items, total := parseStoredItems(row["items"])
	order.Items = items
	order.TotalCents = total

	return order
}

// parseStoredItems returns the display items plus the order total, which is
// non-nil only when every line's pricing fully resolves.
func parseStoredItems(value any) ([]AdminOrderItem, *int64) {
	rows, ok := decodeItemsValue(value).([]any)
	if !ok {
		return []AdminOrderItem{}, nil
	}

	items := make([]AdminOrderItem, 0, len(rows))
	var orderTotal int64
	totalAvailable := true

	for _, rawItem := range rows {
		row, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}

		name := fallbackString(row, "", "name", "item_name", "nome", "title")
		if name == "" {
			continue
		}

		quantity := int64(1)
		if qty, ok := firstNumber(row, "quantity", "qty", "qtd"); ok {
			if truncated := int64(math.Trunc(qty)); truncated > 0 {
				quantity = truncated
			}
		}

		extras, extrasCents, extrasPriced := parseStoredExtras(row["extras"])

		items = append(items, AdminOrderItem{
			Name:     truncateRunes(name, maxAdminExtraNameLength),
			Quantity: quantity,
			Extras:   extras,
		})

		if !totalAvailable {
			continue
		}
		lineTotal, ok := resolveLineTotal(row, quantity, extrasCents, extrasPriced)
		if !ok {
			totalAvailable = false
			continue
		}
		orderTotal += lineTotal
	}

	if !totalAvailable || len(items) == 0 {
		return items, nil
	}
	return items, &orderTotal
}

// resolveLineTotal prefers an explicit stored line total, falling back to
// unit price plus fully-priced extras. Any missing, negative or implausible
// value makes the line unresolvable.
func resolveLineTotal(row map[string]any, quantity, extrasCents int64, extrasPriced bool) (int64, bool) {
	if raw, ok := firstNumber(row, "lineTotalCents", "line_total_cents"); ok {
		total := int64(math.Trunc(raw))
		if plausibleCents(total) {
			return total, true
		}
		return 0, false
	}

	raw, ok := firstNumber(row, "unitPriceCents", "unit_price_cents")
	if !ok || !extrasPriced {
		return 0, false
	}
	unit := int64(math.Trunc(raw))
	if !plausibleCents(unit) || !plausibleCents(extrasCents) {
		return 0, false
	}
	total := (unit + extrasCents) * quantity
	if !plausibleCents(total) {
		return 0, false
	}
	return total, true
}

// parseStoredExtras caps the display list at maxAdminExtrasPerItem but keeps
// pricing every stored extra: a truncated list must never yield a partial sum.
func parseStoredExtras(value any) ([]AdminOrderExtra, int64, bool) {
	rows, ok := decodeItemsValue(value).([]any)
	if !ok {
		return nil, 0, true
	}

	var extras []AdminOrderExtra
	var cents int64
	priced := true

	for _, rawExtra := range rows {
		row, ok := rawExtra.(map[string]any)
		if !ok {
			continue
		}
		name := fallbackString(row, "", "name", "nome", "label", "title")
		if name == "" {
			continue
		}

		if len(extras) < maxAdminExtrasPerItem {
			extra := AdminOrderExtra{Name: truncateRunes(name, maxAdminExtraNameLength)}
			if id := stringValue(row["id"]); id != "" {
				extra.ID = truncateRunes(id, maxAdminExtraIDLength)
			}
			extras = append(extras, extra)
		}

		if price, ok := firstNumber(row, "priceCents", "price_cents"); ok {
			truncated := int64(math.Trunc(price))
			if plausibleCents(truncated) {
				cents += truncated
				continue
			}
		}
		priced = false
	}
	return extras, cents, priced
}

// decodeItemsValue accepts the items column as an already-parsed structure or
// a JSON-encoded string. Parse failure means "absent", never a crash.
func decodeItemsValue(value any) any {
	switch v := value.(type) {
	case []any:
		return v
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil
		}
		return parsed
	case []byte:
		var parsed any
		if err := json.Unmarshal(v, &parsed); err != nil {
			return nil
		}
		return parsed
	default:
		return value
	}
}

func parseCreatedAt(value any) (*string, string) {
	if t, ok := timeValue(value); ok {
		iso := t.UTC().Format(time.RFC3339)
		return &iso, t.Format("02/01/2006 15:04")
	}
	if stringValue(value) != "" {
		return nil, invalidDateLabel
	}
	return nil, missingDateLabel
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func plausibleCents(v int64) bool {
	return v >= 0 && v <= maxPlausibleCents
}

func firstPresent(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := row[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func fallbackString(row map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(row[key]); s != "" {
			return s
		}
	}
	return fallback
}

func firstNumber(row map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if n, ok := numberValue(row[key]); ok {
			return n, true
		}
	}
	return 0, false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int:
		return strconv.Itoa(v)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return ""
	default:
		return ""
	}
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func timeValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string, []byte:
		s := stringValue(v)
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
