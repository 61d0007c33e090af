// Package handlers implementa los handlers HTTP de la API de recursos
// y arma el router del servicio.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
)

// PersonasHandler expone el CRUD de personas.
type PersonasHandler struct {
	svc *service.Service
}

// NewPersonasHandler crea el handler de personas.
func NewPersonasHandler(svc *service.Service) *PersonasHandler {
	return &PersonasHandler{svc: svc}
}

// personaID parsea el path param. Un id no numérico se reporta como
// persona inexistente, no como error de validación: el recurso
// /personas/abc directamente no existe.
func personaID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "personaId"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "no_encontrado", "persona no encontrada", 2404)
		return 0, false
	}
	return id, true
}

type personaRequest struct {
	Nombre string `json:"nombre"`
}

// List maneja GET /api/personas.
func (h *PersonasHandler) List(w http.ResponseWriter, r *http.Request) {
	personas, err := h.svc.ListPersonas(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, personas)
}

// Create maneja POST /api/personas.
func (h *PersonasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePersona(r.Context(), req.Nombre)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

// Get maneja GET /api/personas/{personaId}.
func (h *PersonasHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := personaID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPersona(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// Update maneja PUT /api/personas/{personaId}. Solo muta el nombre.
func (h *PersonasHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := personaID(w, r)
	if !ok {
		return
	}
	var req personaRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePersona(r.Context(), id, req.Nombre)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// Delete maneja DELETE /api/personas/{personaId}. Devuelve la persona
// eliminada (con sus regalos) como confirmación.
func (h *PersonasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := personaID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeletePersona(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
