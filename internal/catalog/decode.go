package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/vitrine/internal/models"
)

// sourceRecord is one entry of the catalog document. Optional fields
// decode to empty strings when absent or null.
type sourceRecord struct {
	ID          models.RecordID `json:"id"`
	FileName    string          `json:"fileName"`
	Title       string          `json:"title"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// Decode parses the catalog document into records in source order.
func Decode(data []byte) ([]models.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("catalog document must be a JSON array")
	}
	var raw []*sourceRecord
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	out := make([]models.Record, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			return nil, fmt.Errorf("parse catalog: entry %d is null", i)
		}
		out = append(out, models.Record{
			ID:             r.ID,
			FileIdentifier: r.FileName,
			Title:          r.Title,
			MediaRef:       r.Image,
			Description:    r.Description,
			CategoryKey:    r.Category,
		})
	}
	return out, nil
}

// newestFirst returns records in reverse source order.
func newestFirst(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}
