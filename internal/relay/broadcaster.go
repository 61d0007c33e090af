// Package relay retransmite eventos de dominio entre clientes conectados.
//
// El relay es un bus de notificación best-effort: no valida, no
// deduplica, no ordena entre productores distintos y no retiene
// eventos. Un cliente que se conecta después de un evento nunca lo
// recibe; un suscriptor lento simplemente lo pierde. El relay nunca
// muta el store.
package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/donpapitoskey/lista-de-regalos/internal/metrics"
	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
)

// bufferDefault es el buffer del canal de cada suscriptor.
const bufferDefault = 64

// Event es un evento ya enriquecido, listo para retransmitir.
type Event struct {
	Evento string          // "persona:created", "regalo:deleted", ...
	Data   json.RawMessage // envelope según el tipo de evento
}

// Broadcaster es el fan-out en memoria hacia los clientes conectados.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	log    *zap.Logger
}

// NewBroadcaster crea el broadcaster. buffer <= 0 usa el default.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = bufferDefault
	}
	return &Broadcaster{
		subs:   make(map[string]chan Event),
		buffer: buffer,
		log:    logger.Named("relay"),
	}
}

// Subscribe registra un suscriptor y retorna su canal de eventos junto
// con el id de suscripción. La suscripción se limpia sola cuando ctx
// se cancela.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	metrics.RelayClientes.Inc()
	b.log.Debug("cliente conectado", zap.String("client_id", id))

	go func() {
		<-ctx.Done()
		b.Unsubscribe(id)
	}()

	return ch, id
}

// Publish retransmite un evento a todos los suscriptores salvo el de
// origen (excludeID), igual que socket.broadcast.emit: el que emitió
// ya conoce su propia mutación. El envío es no bloqueante: si el canal
// de un suscriptor está lleno, ese suscriptor pierde el evento.
func (b *Broadcaster) Publish(ev Event, excludeID string) {
	metrics.RelayEventosTotal.WithLabelValues(ev.Evento).Inc()

	// El RLock se mantiene durante el envío: Unsubscribe y Close
	// cierran canales bajo el lock de escritura, así que ningún canal
	// puede cerrarse mientras se le está enviando. Como el envío es no
	// bloqueante, el lock nunca se retiene esperando a un suscriptor.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		if excludeID != "" && id == excludeID {
			continue
		}
		select {
		case ch <- ev:
		default:
			metrics.RelayDescartadosTotal.Inc()
			b.log.Debug("evento descartado por suscriptor lento", logger.Evento(ev.Evento))
		}
	}
}

// Unsubscribe remueve una suscripción y cierra su canal.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
	metrics.RelayClientes.Dec()
	b.log.Debug("cliente desconectado", zap.String("client_id", id))
}

// Clientes retorna la cantidad de suscriptores conectados.
func (b *Broadcaster) Clientes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close cierra el broadcaster y los canales de todos los suscriptores.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
		metrics.RelayClientes.Dec()
	}
}
