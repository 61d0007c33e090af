package handlers

import (
	"errors"
	"net/http"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/metadata"
)

// MetadataHandler expone el lookup de metadata de URLs para el
// autocompletado de título e imagen al cargar un regalo.
type MetadataHandler struct {
	resolver *metadata.Resolver
}

// NewMetadataHandler crea el handler de metadata.
func NewMetadataHandler(resolver *metadata.Resolver) *MetadataHandler {
	return &MetadataHandler{resolver: resolver}
}

type metadataRequest struct {
	URL string `json:"url"`
}

// metadataResponse usa punteros para responder null (no string vacío)
// cuando la página no trae el dato, igual que la API original.
type metadataResponse struct {
	Titulo    *string `json:"title"`
	URLImagen *string `json:"url_imagen"`
}

// Resolve maneja POST /api/metadata.
func (h *MetadataHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validacion", "url es requerida", 2400)
		return
	}

	m, err := h.resolver.Resolve(r.Context(), req.URL)
	if err != nil {
		var le *metadata.LookupError
		if errors.As(err, &le) {
			httpx.WriteError(w, http.StatusBadRequest, le.Motivo, "no se pudo extraer metadata de la URL", 2401)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "error al extraer metadata", 2501)
		return
	}

	var resp metadataResponse
	if m.Titulo != "" {
		resp.Titulo = &m.Titulo
	}
	if m.URLImagen != "" {
		resp.URLImagen = &m.URLImagen
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
