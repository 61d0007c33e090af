package handlers

import (
	"net/http"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// NewReadyzHandler verifica que el documento se pueda leer. Si el
// archivo está ausente o corrupto el servicio no está listo.
func NewReadyzHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := st.Read(); err != nil {
			logger.From(r.Context()).Error("store no disponible", logger.Err(err))
			httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "documento no disponible", 2003)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
