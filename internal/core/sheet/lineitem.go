package sheet

import (
	"encoding/json"
	"fmt"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// EncodeLineItems serializes line items as the JSON array blob stored in a
// single sheet cell.
func EncodeLineItems(items []domain.LineItem) (string, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode line items: %w", err)
	}
	return string(raw), nil
}

// DecodeLineItems parses the cell blob. A blob that is not a JSON array is
// invalid and the whole field is treated as absent (ok=false). An item with
// the wrong shape is dropped individually; one bad item never invalidates
// the others.
func DecodeLineItems(blob string) ([]domain.LineItem, bool) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &rawItems); err != nil {
		return nil, false
	}

	items := make([]domain.LineItem, 0, len(rawItems))
	for _, raw := range rawItems {
		var item domain.LineItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, true
}
