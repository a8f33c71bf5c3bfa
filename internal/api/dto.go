package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/session"
)

// SearchRequest is the request body for PUT /api/search.
type SearchRequest struct {
	Term string `json:"term" example:"sunset"`
}

// Validate validates the search request.
func (r *SearchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Term, validation.Length(0, 256)),
	)
}

// ToggleRequest is the request body for POST /api/surfaces/{surface}/toggle.
type ToggleRequest struct {
	Key string `json:"key" example:"landscape" validate:"required"`
}

// Validate validates the toggle request.
func (r *ToggleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required, validation.Length(1, 128)),
	)
}

// ViewportRequest reports the client viewport.
type ViewportRequest struct {
	ScrollY float64 `json:"scroll_y" example:"1200"`
	Width   float64 `json:"width" example:"1280"`
	Height  float64 `json:"height" example:"800"`
}

// Validate validates the viewport report.
func (r *ViewportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ScrollY, validation.Min(0.0)),
		validation.Field(&r.Width, validation.Min(0.0)),
		validation.Field(&r.Height, validation.Min(0.0)),
	)
}

// ViewportResponse echoes the viewport after a report.
type ViewportResponse struct {
	ScrollY float64 `json:"scroll_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// CatalogResponse describes the loaded snapshot.
type CatalogResponse struct {
	Source   string          `json:"source"`
	Checksum string          `json:"checksum"`
	LoadedAt *time.Time      `json:"loaded_at,omitempty"`
	Total    int             `json:"total" example:"42"`
	Records  []models.Record `json:"records" validate:"required"`
}

// ReloadResponse is returned after a catalog reload.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Records  int    `json:"records"`
	Checksum string `json:"checksum"`
}

// CategoriesResponse wraps the category list.
type CategoriesResponse struct {
	Categories []index.CategoryCount `json:"categories" validate:"required"`
}

// SurfaceResponse reports the draft and committed selection of a surface.
type SurfaceResponse struct {
	Surface   string   `json:"surface" example:"compact"`
	Draft     []string `json:"draft"`
	Committed []string `json:"committed"`
}

// TargetResponse is the navigation target of a unit.
type TargetResponse struct {
	Unit   string `json:"unit"`
	Target string `json:"target" example:"prompt/sunset"`
}

// ViewState is the session view (aliased from the domain layer).
type ViewState = session.ViewState
