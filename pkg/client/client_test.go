package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donpapitoskey/lista-de-regalos/internal/http/handlers"
	"github.com/donpapitoskey/lista-de-regalos/internal/relay"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// servidorReal levanta el servicio completo (API + relay) como lo arma
// main.go, para ejercitar el cliente contra el router de verdad.
func servidorReal(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, st.Seed())

	b := relay.NewBroadcaster(8)
	t.Cleanup(b.Close)

	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Store:   st,
		Service: service.New(st, 0),
		Relay:   relay.NewHandler(b, 0),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCRUD(t *testing.T) {
	srv := servidorReal(t)
	cl := New(srv.URL)
	ctx := context.Background()

	personas, err := cl.ListPersonas(ctx)
	require.NoError(t, err)
	assert.Empty(t, personas)

	ana, err := cl.CreatePersona(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, 1, ana.ID)

	libro, err := cl.CreateRegalo(ctx, ana.ID, RegaloInput{Nombre: "Libro", URL: "https://tienda.example/libro"})
	require.NoError(t, err)
	require.NotNil(t, libro.URL)
	assert.Equal(t, "https://tienda.example/libro", *libro.URL)
	assert.False(t, libro.Tomado)

	tomado := true
	marcado, err := cl.UpdateRegalo(ctx, ana.ID, libro.ID, RegaloPatch{Tomado: &tomado})
	require.NoError(t, err)
	assert.True(t, marcado.Tomado)
	assert.Equal(t, "Libro", marcado.Nombre, "el patch parcial no toca los demás campos")

	regalos, err := cl.ListRegalos(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, regalos, 1)
	assert.True(t, regalos[0].Tomado)

	borrada, err := cl.DeletePersona(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", borrada.Nombre)
	require.Len(t, borrada.Regalos, 1, "el delete devuelve la persona con sus regalos")
}

func TestClientIDConcurrente(t *testing.T) {
	// el Syncer asigna el id desde su goroutine mientras la app lo lee
	// al emitir; ambos caminos tienen que poder correr a la vez
	cl := New("http://localhost:0")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cl.setClientID("abc-123")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = cl.ClientID()
		}
	}()
	wg.Wait()

	assert.Equal(t, "abc-123", cl.ClientID())
}

func TestClientAPIError(t *testing.T) {
	srv := servidorReal(t)
	cl := New(srv.URL)
	ctx := context.Background()

	_, err := cl.GetPersona(ctx, 999)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "no_encontrado", apiErr.Code)

	_, err = cl.CreatePersona(ctx, "   ")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "validacion", apiErr.Code)
}
