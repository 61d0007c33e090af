package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	ctx := context.Background()

	ch1, _ := b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)
	require.Equal(t, 2, b.Clientes())

	ev := Event{Evento: EventoPersonaCreated, Data: json.RawMessage(`{"persona":{"id":1}}`)}
	b.Publish(ev, "")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, EventoPersonaCreated, got.Evento)
		case <-time.After(time.Second):
			t.Fatal("el suscriptor no recibió el evento")
		}
	}
}

func TestBroadcasterExcludesOrigin(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	ctx := context.Background()

	chOrigen, idOrigen := b.Subscribe(ctx)
	chOtro, _ := b.Subscribe(ctx)

	b.Publish(Event{Evento: EventoPersonaUpdated, Data: json.RawMessage(`{}`)}, idOrigen)

	select {
	case got := <-chOtro:
		assert.Equal(t, EventoPersonaUpdated, got.Evento)
	case <-time.After(time.Second):
		t.Fatal("el otro cliente no recibió el evento")
	}

	select {
	case ev := <-chOrigen:
		t.Fatalf("el origen no debe recibir su propio evento, llegó %q", ev.Evento)
	default:
	}
}

func TestBroadcasterDropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(1)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background())

	ev := Event{Evento: EventoRegaloCreated, Data: json.RawMessage(`{}`)}
	b.Publish(ev, "")
	b.Publish(ev, "") // buffer lleno: este se pierde

	assert.Len(t, ch, 1, "el suscriptor lento pierde el evento extra, sin bloquear al emisor")
}

func TestPublishConcurrenteConDesconexiones(t *testing.T) {
	b := NewBroadcaster(1)
	defer b.Close()

	// suscriptores con buffer mínimo para forzar el camino de descarte
	// mientras otro goroutine los va desconectando
	ids := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		_, id := b.Subscribe(context.Background())
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ev := Event{Evento: EventoRegaloUpdated, Data: json.RawMessage(`{}`)}
		for i := 0; i < 500; i++ {
			b.Publish(ev, "")
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids {
			b.Unsubscribe(id)
		}
	}()
	wg.Wait()

	assert.Zero(t, b.Clientes(), "publicar contra desconexiones concurrentes no pierde ni rompe nada")
}

func TestSubscribeCleansUpOnContextCancel(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	require.Equal(t, 1, b.Clientes())

	cancel()
	require.Eventually(t, func() bool { return b.Clientes() == 0 },
		time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open, "el canal se cierra al des-suscribirse")
}

func TestEnrich(t *testing.T) {
	t.Run("persona created envuelve el payload", func(t *testing.T) {
		out, ok := enrich(EventoPersonaCreated, json.RawMessage(`{"id":1,"nombre":"Ana","regalos":[]}`))
		require.True(t, ok)
		var env struct {
			Persona struct {
				Nombre string `json:"nombre"`
			} `json:"persona"`
		}
		require.NoError(t, json.Unmarshal(out, &env))
		assert.Equal(t, "Ana", env.Persona.Nombre)
	})

	t.Run("persona deleted reduce al nombre", func(t *testing.T) {
		out, ok := enrich(EventoPersonaDeleted, json.RawMessage(`{"id":2,"nombre":"Bruno","regalos":[]}`))
		require.True(t, ok)
		assert.JSONEq(t, `{"personaNombre":"Bruno"}`, string(out))
	})

	t.Run("regalo updated pasa el contexto de la persona", func(t *testing.T) {
		in := `{"regalo":{"id":1,"nombre":"Libro","tomado":true},"personaNombre":"Ana","personaId":3}`
		out, ok := enrich(EventoRegaloUpdated, json.RawMessage(in))
		require.True(t, ok)
		var env regaloEnvelope
		require.NoError(t, json.Unmarshal(out, &env))
		assert.Equal(t, "Ana", env.PersonaNombre)
		assert.Equal(t, 3, env.PersonaID)
	})

	t.Run("regalo deleted", func(t *testing.T) {
		in := `{"regaloNombre":"Libro","personaNombre":"Ana","personaId":1}`
		out, ok := enrich(EventoRegaloDeleted, json.RawMessage(in))
		require.True(t, ok)
		assert.JSONEq(t, in, string(out))
	})

	t.Run("evento desconocido se ignora", func(t *testing.T) {
		_, ok := enrich("regalo:explotado", json.RawMessage(`{}`))
		assert.False(t, ok)
	})
}

func TestServeEmit(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	h := NewHandler(b, 0)

	ch, _ := b.Subscribe(context.Background())

	body := `{"evento":"persona:created","data":{"id":1,"nombre":"Ana","regalos":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeEmit(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case ev := <-ch:
		assert.Equal(t, EventoPersonaCreated, ev.Evento)
		assert.Contains(t, string(ev.Data), `"persona"`)
	case <-time.After(time.Second):
		t.Fatal("el evento emitido no llegó al suscriptor")
	}
}

func TestServeEmitUnknownEventStillAccepted(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	h := NewHandler(b, 0)

	ch, _ := b.Subscribe(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"evento":"nope","data":{}}`))
	rec := httptest.NewRecorder()
	h.ServeEmit(rec, req)

	// fire-and-forget: el productor nunca ve fallar la emisión
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, ch)
}

func TestServeEmitExcludesOriginClient(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	h := NewHandler(b, 0)

	chOrigen, idOrigen := b.Subscribe(context.Background())
	chOtro, _ := b.Subscribe(context.Background())

	body := `{"evento":"persona:updated","data":{"id":1,"nombre":"Ana"}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("X-Client-ID", idOrigen)
	rec := httptest.NewRecorder()
	h.ServeEmit(rec, req)

	select {
	case <-chOtro:
	case <-time.After(time.Second):
		t.Fatal("el otro cliente no recibió el evento")
	}
	assert.Empty(t, chOrigen, "el emisor no recibe su propio evento")
}

// escritorCortado simula un peer que murió: a partir de fallar(),
// toda escritura devuelve error.
type escritorCortado struct {
	header http.Header
	roto   atomic.Bool
}

func (e *escritorCortado) Header() http.Header { return e.header }
func (e *escritorCortado) WriteHeader(int)     {}
func (e *escritorCortado) Flush()              {}
func (e *escritorCortado) Write(b []byte) (int, error) {
	if e.roto.Load() {
		return 0, errors.New("broken pipe")
	}
	return len(b), nil
}

func TestServeStreamCortaAlFallarLaEscritura(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	h := NewHandler(b, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &escritorCortado{header: make(http.Header)}
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		h.ServeStream(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.Clientes() == 1 },
		time.Second, 10*time.Millisecond)

	// el peer muere; el próximo evento no se puede escribir y el
	// handler debe salir sin esperar la cancelación del contexto
	w.roto.Store(true)
	b.Publish(Event{Evento: EventoPersonaUpdated, Data: json.RawMessage(`{}`)}, "")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el stream no cortó tras la escritura fallida")
	}
}

func TestServeStream(t *testing.T) {
	b := NewBroadcaster(8)
	defer b.Close()
	h := NewHandler(b, time.Minute)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeStream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)

	// primer frame: connected con el client id
	var clientID string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			var c struct {
				ClientID string `json:"clientId"`
			}
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c))
			clientID = c.ClientID
			break
		}
	}
	require.NotEmpty(t, clientID)
	require.Eventually(t, func() bool { return b.Clientes() == 1 },
		time.Second, 10*time.Millisecond)

	// publicar y leer el frame por el stream
	b.Publish(Event{Evento: EventoRegaloCreated, Data: json.RawMessage(`{"regalo":{"id":1}}`)}, "")

	var evento, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			evento = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if evento != "" && data != "" {
			break
		}
	}
	assert.Equal(t, EventoRegaloCreated, evento)
	assert.Contains(t, data, `"regalo"`)

	// al desconectar, la suscripción se limpia
	cancel()
	require.Eventually(t, func() bool { return b.Clientes() == 0 },
		time.Second, 10*time.Millisecond)
}
