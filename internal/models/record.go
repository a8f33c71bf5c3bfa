// Package models defines the domain types for Vitrine.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RecordID is the source identifier of a record. It is carried through
// unmodified: numeric ids keep their JSON text, string ids their value.
type RecordID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	*id = RecordID(data)
	return nil
}

// Record is one immutable catalog entry.
type Record struct {
	ID             RecordID `json:"id"`
	FileIdentifier string   `json:"file_identifier"`
	Title          string   `json:"title"`
	MediaRef       string   `json:"media_ref"`
	Description    string   `json:"description"`
	CategoryKey    string   `json:"category_key"`
}

// Category returns the lower-cased category key used for all comparisons.
func (r Record) Category() string {
	return strings.ToLower(r.CategoryKey)
}
