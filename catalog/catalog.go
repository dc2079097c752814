package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MenuExtra is an add-on nested under a menu item. The id is unique only
// within its parent item's extras list. A missing price means "price
// unknown": the extra stays visible but cannot be ordered.
type MenuExtra struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents *int64 `json:"priceCents,omitempty"`
}

// MenuItem is an immutable catalog entry, loaded once at process start.
type MenuItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Description string      `json:"description,omitempty"`
	PriceCents  *int64      `json:"priceCents,omitempty"`
	Extras      []MenuExtra `json:"extras,omitempty"`
}

// ExtraByID resolves an extra within this item's extras list.
func (m *MenuItem) ExtraByID(id string) (MenuExtra, bool) {
	for _, extra := range m.Extras {
		if extra.ID == id {
			return extra, true
		}
	}
	return MenuExtra{}, false
}

// Catalog is the in-memory menu lookup, keyed by item id. Read-only after
// load.
type Catalog struct {
	items []MenuItem
	byID  map[string]MenuItem
}

// Load reads the menu configuration file and builds the catalog. Rows that
// lack a usable id or name are dropped rather than failing the whole load;
// legacy catalog files carry incomplete entries.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(raw)
}

// Parse builds a catalog from raw JSON. Exported for tests and seeds.
func Parse(raw []byte) (*Catalog, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse menu file: %w", err)
	}

	cat := &Catalog{byID: make(map[string]MenuItem, len(rows))}
	for _, row := range rows {
		item, ok := parseMenuItem(row)
		if !ok {
			continue
		}
		if _, dup := cat.byID[item.ID]; dup {
			continue
		}
		cat.byID[item.ID] = item
		cat.items = append(cat.items, item)
	}
	return cat, nil
}

// ItemByID resolves a catalog item.
func (c *Catalog) ItemByID(id string) (MenuItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Items returns all catalog entries in file order.
func (c *Catalog) Items() []MenuItem {
	return c.items
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func parseMenuItem(raw json.RawMessage) (MenuItem, bool) {
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return MenuItem{}, false
	}

	id := stringFrom(row["id"])
	name := stringFrom(row["name"])
	if id == "" || name == "" {
		return MenuItem{}, false
	}

	item := MenuItem{
		ID:          id,
		Name:        name,
		Description: stringFrom(row["description"]),
	}
	if category := stringFrom(row["category"]); category != "" {
		item.Category = category
	} else {
		item.Category = stringFrom(row["categoria"])
	}

	// Accept both camelCase and snake_case price keys; negative prices are
	// treated as absent.
	price := numberFrom(row["priceCents"])
	if price == nil {
		price = numberFrom(row["price_cents"])
	}
	if price != nil && *price >= 0 {
		item.PriceCents = price
	}

	if rawExtras, ok := row["extras"].([]any); ok {
		item.Extras = parseMenuExtras(rawExtras)
	}
	return item, true
}

func parseMenuExtras(rows []any) []MenuExtra {
	var extras []MenuExtra
	for _, rawExtra := range rows {
		row, ok := rawExtra.(map[string]any)
		if !ok {
			continue
		}
		id := stringFrom(row["id"])
		name := stringFrom(row["name"])
		if id == "" || name == "" {
			continue
		}
		extra := MenuExtra{ID: id, Name: name}
		price := numberFrom(row["priceCents"])
		if price == nil {
			price = numberFrom(row["price_cents"])
		}
		if price != nil && *price >= 0 {
			extra.PriceCents = price
		}
		extras = append(extras, extra)
	}
	return extras
}

func stringFrom(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func numberFrom(value any) *int64 {
	switch v := value.(type) {
	case float64:
		n := int64(v)
		return &n
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}
