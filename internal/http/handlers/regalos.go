package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
)

// RegalosHandler expone el CRUD de regalos, siempre anidado bajo una
// persona.
type RegalosHandler struct {
	svc *service.Service
}

// NewRegalosHandler crea el handler de regalos.
func NewRegalosHandler(svc *service.Service) *RegalosHandler {
	return &RegalosHandler{svc: svc}
}

func regaloID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "regaloId"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "no_encontrado", "regalo no encontrado", 2404)
		return 0, false
	}
	return id, true
}

type regaloCreateRequest struct {
	Nombre      string `json:"nombre"`
	URL         string `json:"url"`
	URLImagen   string `json:"url_imagen"`
	LugarCompra string `json:"lugarCompra"`
}

// regaloUpdateRequest es un PATCH-merge: los punteros nil son campos
// omitidos y quedan intactos.
type regaloUpdateRequest struct {
	Nombre      *string `json:"nombre"`
	URL         *string `json:"url"`
	URLImagen   *string `json:"url_imagen"`
	LugarCompra *string `json:"lugarCompra"`
	Tomado      *bool   `json:"tomado"`
}

// List maneja GET /api/personas/{personaId}/regalos.
func (h *RegalosHandler) List(w http.ResponseWriter, r *http.Request) {
	pid, ok := personaID(w, r)
	if !ok {
		return
	}
	regalos, err := h.svc.ListRegalos(r.Context(), pid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, regalos)
}

// Create maneja POST /api/personas/{personaId}/regalos.
func (h *RegalosHandler) Create(w http.ResponseWriter, r *http.Request) {
	pid, ok := personaID(w, r)
	if !ok {
		return
	}
	var req regaloCreateRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	regalo, err := h.svc.CreateRegalo(r.Context(), pid, service.RegaloInput{
		Nombre:      req.Nombre,
		URL:         req.URL,
		URLImagen:   req.URLImagen,
		LugarCompra: req.LugarCompra,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, regalo)
}

// Get maneja GET /api/personas/{personaId}/regalos/{regaloId}.
func (h *RegalosHandler) Get(w http.ResponseWriter, r *http.Request) {
	pid, ok := personaID(w, r)
	if !ok {
		return
	}
	rid, ok := regaloID(w, r)
	if !ok {
		return
	}
	regalo, err := h.svc.GetRegalo(r.Context(), pid, rid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, regalo)
}

// Update maneja PUT /api/personas/{personaId}/regalos/{regaloId}.
func (h *RegalosHandler) Update(w http.ResponseWriter, r *http.Request) {
	pid, ok := personaID(w, r)
	if !ok {
		return
	}
	rid, ok := regaloID(w, r)
	if !ok {
		return
	}
	var req regaloUpdateRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	regalo, err := h.svc.UpdateRegalo(r.Context(), pid, rid, service.RegaloPatch{
		Nombre:      req.Nombre,
		URL:         req.URL,
		URLImagen:   req.URLImagen,
		LugarCompra: req.LugarCompra,
		Tomado:      req.Tomado,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, regalo)
}

// Delete maneja DELETE /api/personas/{personaId}/regalos/{regaloId}.
func (h *RegalosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pid, ok := personaID(w, r)
	if !ok {
		return
	}
	rid, ok := regaloID(w, r)
	if !ok {
		return
	}
	regalo, err := h.svc.DeleteRegalo(r.Context(), pid, rid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, regalo)
}
