package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donpapitoskey/lista-de-regalos/internal/metadata"
	"github.com/donpapitoskey/lista-de-regalos/internal/rate"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// nuevoServidor levanta el router completo sobre un store en un
// directorio temporal, igual que lo arma main.go pero sin relay ni
// metadata.
func nuevoServidor(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, st.Seed())

	srv := httptest.NewServer(NewRouter(Deps{
		Store:   st,
		Service: service.New(st, 0),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestPersonasCRUD(t *testing.T) {
	srv := nuevoServidor(t)

	// lista vacía al arrancar
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/personas", nil)
	var lista []store.Persona
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &lista)
	assert.Empty(t, lista)

	// crear
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/personas", map[string]string{"nombre": "Ana"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ana store.Persona
	decodeInto(t, resp, &ana)
	assert.Equal(t, 1, ana.ID)
	assert.Equal(t, "Ana", ana.Nombre)
	assert.NotNil(t, ana.Regalos, "regalos serializa como [], nunca null")

	// leer
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/personas/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var leida store.Persona
	decodeInto(t, resp, &leida)
	assert.Equal(t, ana, leida)

	// renombrar
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/personas/1", map[string]string{"nombre": "Ana María"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var renombrada store.Persona
	decodeInto(t, resp, &renombrada)
	assert.Equal(t, "Ana María", renombrada.Nombre)

	// borrar devuelve la persona eliminada
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/personas/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var borrada store.Persona
	decodeInto(t, resp, &borrada)
	assert.Equal(t, "Ana María", borrada.Nombre)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/personas/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPersonaValidacionYNotFound(t *testing.T) {
	srv := nuevoServidor(t)

	t.Run("nombre vacío es 400", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/personas", map[string]string{"nombre": "  "})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var e struct {
			Error string `json:"error"`
		}
		decodeInto(t, resp, &e)
		assert.Equal(t, "validacion", e.Error)
	})

	t.Run("id inexistente es 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/personas/999", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("id no numérico es 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/personas/abc", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("sin content-type es 400", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/personas", "text/plain", bytes.NewBufferString("hola"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestRegalosCRUD(t *testing.T) {
	srv := nuevoServidor(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/personas", map[string]string{"nombre": "Bruno"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// crear con opcionales vacíos: quedan sin setear
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/personas/1/regalos", map[string]string{
		"nombre": "Libro",
		"url":    "",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var libro store.Regalo
	decodeInto(t, resp, &libro)
	assert.Equal(t, 1, libro.ID)
	assert.Nil(t, libro.URL)
	assert.False(t, libro.Tomado, "un regalo siempre nace libre")

	// marcar tomado sin tocar el resto
	tomado := true
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/personas/1/regalos/1", map[string]any{"tomado": tomado})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var marcado store.Regalo
	decodeInto(t, resp, &marcado)
	assert.True(t, marcado.Tomado)
	assert.Equal(t, "Libro", marcado.Nombre)

	// el tomado persiste en la lista de la persona
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/personas/1/regalos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var regalos []store.Regalo
	decodeInto(t, resp, &regalos)
	require.Len(t, regalos, 1)
	assert.True(t, regalos[0].Tomado)

	// borrar devuelve el regalo eliminado
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/personas/1/regalos/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var borrado store.Regalo
	decodeInto(t, resp, &borrado)
	assert.Equal(t, "Libro", borrado.Nombre)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/personas/1/regalos/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRegaloPersonaInexistente(t *testing.T) {
	srv := nuevoServidor(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/personas/42/regalos", map[string]string{"nombre": "Libro"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e struct {
		ErrorDescription string `json:"error_description"`
	}
	decodeInto(t, resp, &e)
	assert.Contains(t, e.ErrorDescription, "persona", "la persona ausente se reporta antes que el regalo")
}

func TestRegaloCapPorPersona(t *testing.T) {
	srv := nuevoServidor(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/personas", map[string]string{"nombre": "Carla"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	for i := 0; i < 10; i++ {
		resp = doJSON(t, http.MethodPost, srv.URL+"/api/personas/1/regalos", map[string]string{"nombre": "Regalo"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/personas/1/regalos", map[string]string{"nombre": "Uno más"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "el límite por persona se aplica en el servidor")
	resp.Body.Close()
}

func TestMetadataEndpoint(t *testing.T) {
	pagina := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Un libro"></head></html>`))
	}))
	t.Cleanup(pagina.Close)

	st := store.New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, st.Seed())

	srv := httptest.NewServer(NewRouter(Deps{
		Store:           st,
		Service:         service.New(st, 0),
		Metadata:        metadata.NewResolver(5*time.Second, time.Minute),
		MetadataLimiter: rate.NewMemoryLimiter("test:", 2, time.Hour),
	}))
	t.Cleanup(srv.Close)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/metadata", map[string]string{"url": pagina.URL})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Title *string `json:"title"`
	}
	decodeInto(t, resp, &out)
	require.NotNil(t, out.Title)
	assert.Equal(t, "Un libro", *out.Title)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/metadata", map[string]string{"url": "no-es-url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// tercer request de la misma IP: la ventana (max 2) ya se agotó
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/metadata", map[string]string{"url": pagina.URL})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	resp.Body.Close()
}

func TestHealthYReadyz(t *testing.T) {
	srv := nuevoServidor(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
