package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
)

// heartbeatDefault es el intervalo de comentarios SSE para detectar
// conexiones muertas.
const heartbeatDefault = 30 * time.Second

// Handler expone el relay por HTTP: GET /events para suscribirse (SSE)
// y POST /events para emitir (fire-and-forget).
type Handler struct {
	b         *Broadcaster
	heartbeat time.Duration
	log       *zap.Logger
}

// NewHandler crea el handler HTTP del relay. heartbeat <= 0 usa el
// default de 30s.
func NewHandler(b *Broadcaster, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = heartbeatDefault
	}
	return &Handler{b: b, heartbeat: heartbeat, log: logger.Named("relay.http")}
}

// ServeStream maneja GET /events: suscribe al cliente y le streamea
// eventos por SSE hasta que se desconecta. El primer frame
// (event: connected) le entrega su client id, que el cliente repite en
// X-Client-ID al emitir para excluirse del rebroadcast.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming no soportado", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // sin buffering de nginx

	events, id := h.b.Subscribe(r.Context())

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\": %q}\n\n", id)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			// una escritura fallida significa peer muerto: cortar acá en
			// vez de esperar la cancelación del contexto
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Evento, ev.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// emitRequest es el body de POST /events.
type emitRequest struct {
	Evento string          `json:"evento"`
	Data   json.RawMessage `json:"data"`
}

// ServeEmit maneja POST /events: retransmite el evento a todos los
// clientes conectados menos el de origen (header X-Client-ID).
// La emisión es fire-and-forget: siempre responde 202, incluso si el
// body no se entiende o el tipo de evento es desconocido. El productor
// nunca ve fallar la emisión.
func (h *Handler) ServeEmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req emitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		h.log.Debug("emisión con body ilegible, ignorada", logger.Err(err))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, ok := enrich(req.Evento, req.Data)
	if !ok {
		h.log.Debug("evento desconocido, ignorado", logger.Evento(req.Evento))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	origen := r.Header.Get("X-Client-ID")
	h.b.Publish(Event{Evento: req.Evento, Data: data}, origen)
	h.log.Debug("evento retransmitido", logger.Evento(req.Evento), zap.String("origen", origen))

	w.WriteHeader(http.StatusAccepted)
}
