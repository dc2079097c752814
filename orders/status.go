package orders

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the order lifecycle: a strictly linear three-state sequence.
// No transition skips a state; no transition reverses.
type Status string

const (
	StatusAwaitingConfirmation Status = "aguardando_confirmacao"
	StatusPreparing            Status = "em_preparo"
	StatusDelivered            Status = "entregue"
)

// StatusSequence is the full lifecycle in order. StatusDelivered is terminal.
var StatusSequence = []Status{
	StatusAwaitingConfirmation,
	StatusPreparing,
	StatusDelivered,
}

var statusLabels = map[Status]string{
	StatusAwaitingConfirmation: "Esperando confirmação",
	StatusPreparing:            "Em preparo",
	StatusDelivered:            "Entregue",
}

const unknownStatusLabel = "Status desconhecido"

// StatusLabel returns the display label for a recognized status.
func StatusLabel(s Status) string {
	return statusLabels[s]
}

// NextStatus returns the successor in the lifecycle. The second return is
// false when the status is unrecognized or already terminal.
func NextStatus(s Status) (Status, bool) {
	for i, candidate := range StatusSequence {
		if candidate == s {
			if i+1 < len(StatusSequence) {
				return StatusSequence[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// NormalizeStatus folds accents, case and whitespace so that statuses written
// inconsistently ("Em Preparo", "aguardando confirmação") still resolve. The
// legacy spelling "esperando confirmação" maps to the awaiting state.
func NormalizeStatus(value string) (Status, bool) {
	folded := foldAccents(strings.ToLower(strings.TrimSpace(value)))
	folded = strings.Join(strings.Fields(folded), "_")

	switch Status(folded) {
	case StatusAwaitingConfirmation, StatusPreparing, StatusDelivered:
		return Status(folded), true
	}
	if folded == "esperando_confirmacao" {
		return StatusAwaitingConfirmation, true
	}
	return "", false
}

// StatusInfo is the defensive reading of a persisted status value. Unknown
// values keep their raw text as a display label instead of being dropped.
type StatusInfo struct {
	Status Status
	Known  bool
	Label  string
	Raw    string
}

// StatusFromUnknown classifies an arbitrary persisted value.
func StatusFromUnknown(value any) StatusInfo {
	raw, _ := value.(string)
	if normalized, ok := NormalizeStatus(raw); ok {
		return StatusInfo{Status: normalized, Known: true, Label: StatusLabel(normalized), Raw: raw}
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return StatusInfo{Label: trimmed, Raw: raw}
	}
	return StatusInfo{Label: unknownStatusLabel}
}

// StatusSortRank orders recognized statuses by lifecycle position; anything
// unrecognized sorts after all of them.
func StatusSortRank(info StatusInfo) int {
	if info.Known {
		for i, candidate := range StatusSequence {
			if candidate == info.Status {
				return i
			}
		}
	}
	return len(StatusSequence)
}

func foldAccents(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		return value
	}
	return folded
}
