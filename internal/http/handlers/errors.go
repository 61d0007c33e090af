package handlers

import (
	"errors"
	"net/http"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// writeServiceError traduce la taxonomía de errores del dominio a
// status HTTP: validación → 400, no encontrado → 404, storage → 500.
// Nunca filtra el detalle interno de un StorageError al caller.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	var nf *service.NotFoundError
	var se *store.StorageError

	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, http.StatusBadRequest, "validacion", ve.Error(), 2400)
	case errors.As(err, &nf):
		httpx.WriteError(w, http.StatusNotFound, "no_encontrado", nf.Error(), 2404)
	case errors.As(err, &se):
		httpx.WriteError(w, http.StatusInternalServerError, "almacenamiento", "error al acceder a la base de datos", 2500)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "error inesperado", 2501)
	}
}
