// Package server is a small backend implementing the persons collection
// contract. It exists for local development and tests.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/N3moAhead/roster/internal/db"
	"github.com/N3moAhead/roster/internal/person"
)

// CollectionPath is where the persons collection is mounted.
const CollectionPath = "/api/persons"

type Handler struct {
	Store  *db.Store
	Logger *zap.Logger
}

// NewRouter wires the collection routes.
func NewRouter(store *db.Store, logger *zap.Logger) http.Handler {
	h := &Handler{Store: store, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get(CollectionPath, h.List)
	r.Post(CollectionPath, h.Create)
	r.Delete(CollectionPath+"/{id}", h.Delete)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.List())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var d person.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := d.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Store.Create(d)
	if err != nil {
		h.Logger.Error("create person", zap.Error(err))
		http.Error(w, "could not save person", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := person.ID(chi.URLParam(r, "id"))

	err := h.Store.Delete(id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		h.Logger.Error("delete person", zap.String("id", string(id)), zap.Error(err))
		http.Error(w, "could not delete person", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
