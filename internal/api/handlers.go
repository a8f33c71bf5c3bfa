package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/selection"
	"github.com/starford/vitrine/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	sess *session.Session
	idx  index.CatalogIndex
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session, idx index.CatalogIndex) *Handler {
	return &Handler{sess: sess, idx: idx}
}

// Catalog handles GET /api/catalog.
//
//	@Summary		Get the loaded catalog snapshot, newest first
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	CatalogResponse
//	@Security		BearerAuth
//	@Router			/catalog [get]
func (h *Handler) Catalog(w http.ResponseWriter, _ *http.Request) {
	snap := h.sess.Catalog()
	resp := CatalogResponse{
		Source:   snap.Source,
		Checksum: snap.Checksum,
		Total:    len(snap.Records),
		Records:  snap.Records,
	}
	if !snap.LoadedAt.IsZero() {
		resp.LoadedAt = &snap.LoadedAt
	}
	if resp.Records == nil {
		resp.Records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reload handles POST /api/catalog/reload.
//
//	@Summary		Fetch the catalog again
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/catalog/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Load(r.Context()); err != nil {
		h.loadFailed(w, err)
		return
	}
	snap := h.sess.Catalog()
	writeJSON(w, http.StatusOK, ReloadResponse{Reloaded: true, Records: len(snap.Records), Checksum: snap.Checksum})
}

// Resume handles POST /api/resume.
//
//	@Summary		Reload the catalog if nothing is displayed
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resume [post]
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	reloaded, err := h.sess.Resume(r.Context())
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	snap := h.sess.Catalog()
	writeJSON(w, http.StatusOK, ReloadResponse{Reloaded: reloaded, Records: len(snap.Records), Checksum: snap.Checksum})
}

func (h *Handler) loadFailed(w http.ResponseWriter, err error) {
	var le *apperr.LoadError
	if errors.As(err, &le) {
		writeJSON(w, http.StatusBadGateway, errorBody(le.Error()))
		return
	}
	slog.Error("catalog load failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// Categories handles GET /api/categories.
//
//	@Summary		List categories with record counts
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	cats, err := h.idx.Categories()
	if err != nil {
		slog.Error("categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

// Record handles GET /api/records/{file}.
//
//	@Summary		Get a record by file identifier
//	@Tags			catalog
//	@Produce		json
//	@Param			file	path		string	true	"File identifier"
//	@Success		200		{object}	models.Record
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{file} [get]
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	rec, err := h.idx.RecordByFile(file)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get record failed", slog.String("file", file), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// View handles GET /api/view.
//
//	@Summary		Get the current view: status, search, selection and card units
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	ViewState
//	@Security		BearerAuth
//	@Router			/view [get]
func (h *Handler) View(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.State())
}

// SetSearch handles PUT /api/search.
//
//	@Summary		Set the search term
//	@Tags			view
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Search term"
//	@Success		200		{object}	ViewState
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [put]
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.sess.SetSearch(req.Term)
	writeJSON(w, http.StatusOK, h.sess.State())
}

// ClearSearch handles DELETE /api/search.
//
//	@Summary		Clear the search term
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	ViewState
//	@Security		BearerAuth
//	@Router			/search [delete]
func (h *Handler) ClearSearch(w http.ResponseWriter, _ *http.Request) {
	h.sess.ClearSearch()
	writeJSON(w, http.StatusOK, h.sess.State())
}

func surfaceParam(r *http.Request) selection.Surface {
	return selection.Surface(chi.URLParam(r, "surface"))
}

func (h *Handler) writeSurface(w http.ResponseWriter, name selection.Surface, err error) {
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownSurface) {
			writeJSON(w, http.StatusNotFound, errorBody("unknown surface"))
		} else {
			slog.Error("surface operation failed", slog.String("surface", string(name)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	draft, err := h.sess.Draft(name)
	if err != nil {
		h.writeSurface(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, SurfaceResponse{
		Surface:   string(name),
		Draft:     draft.Keys(),
		Committed: h.sess.Committed().Keys(),
	})
}

// Surface handles GET /api/surfaces/{surface}.
//
//	@Summary		Get draft and committed selection of a selector surface
//	@Tags			selection
//	@Produce		json
//	@Param			surface	path		string	true	"Surface"	Enums(compact, expanded)
//	@Success		200		{object}	SurfaceResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/surfaces/{surface} [get]
func (h *Handler) Surface(w http.ResponseWriter, r *http.Request) {
	h.writeSurface(w, surfaceParam(r), nil)
}

// OpenSurface handles POST /api/surfaces/{surface}/open.
//
//	@Summary		Start editing: copy the committed selection into the draft
//	@Tags			selection
//	@Produce		json
//	@Param			surface	path		string	true	"Surface"	Enums(compact, expanded)
//	@Success		200		{object}	SurfaceResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/surfaces/{surface}/open [post]
func (h *Handler) OpenSurface(w http.ResponseWriter, r *http.Request) {
	name := surfaceParam(r)
	_, err := h.sess.OpenSurface(name)
	h.writeSurface(w, name, err)
}

// Toggle handles POST /api/surfaces/{surface}/toggle.
//
//	@Summary		Toggle a category (or "all") in the draft
//	@Tags			selection
//	@Accept			json
//	@Produce		json
//	@Param			surface	path		string			true	"Surface"	Enums(compact, expanded)
//	@Param			body	body		ToggleRequest	true	"Category key"
//	@Success		200		{object}	SurfaceResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/surfaces/{surface}/toggle [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	name := surfaceParam(r)
	var req ToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	_, err := h.sess.Toggle(name, req.Key)
	h.writeSurface(w, name, err)
}

// Apply handles POST /api/surfaces/{surface}/apply.
//
//	@Summary		Commit the draft; the view is rebuilt
//	@Tags			selection
//	@Produce		json
//	@Param			surface	path		string	true	"Surface"	Enums(compact, expanded)
//	@Success		200		{object}	SurfaceResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/surfaces/{surface}/apply [post]
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	name := surfaceParam(r)
	_, err := h.sess.Apply(name)
	h.writeSurface(w, name, err)
}

// Reset handles POST /api/surfaces/{surface}/reset.
//
//	@Summary		Reset the draft to all categories and commit it
//	@Tags			selection
//	@Produce		json
//	@Param			surface	path		string	true	"Surface"	Enums(compact, expanded)
//	@Success		200		{object}	SurfaceResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/surfaces/{surface}/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	name := surfaceParam(r)
	_, err := h.sess.Reset(name)
	h.writeSurface(w, name, err)
}

// Viewport handles POST /api/viewport.
//
//	@Summary		Report scroll offset and viewport size
//	@Tags			view
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ViewportRequest	true	"Viewport"
//	@Success		200		{object}	ViewportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/viewport [post]
func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.sess.ReportViewport(req.ScrollY, req.Width, req.Height)
	y, width, height := h.sess.Viewport()
	writeJSON(w, http.StatusOK, ViewportResponse{ScrollY: y, Width: width, Height: height})
}

// Target handles GET /api/units/{unit}/target.
//
//	@Summary		Navigation target of a settled card unit
//	@Tags			view
//	@Produce		json
//	@Param			unit	path		string	true	"Unit ID"
//	@Success		200		{object}	TargetResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/units/{unit}/target [get]
func (h *Handler) Target(w http.ResponseWriter, r *http.Request) {
	unit := chi.URLParam(r, "unit")
	target, err := h.sess.Navigate(unit)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, TargetResponse{Unit: unit, Target: target})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNotNavigable):
		writeJSON(w, http.StatusConflict, errorBody("unit is not navigable"))
	default:
		slog.Error("navigate failed", slog.String("unit", unit), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
