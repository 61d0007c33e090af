package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Syncer mantiene una vista eventualmente consistente con el store.
//
// Cada evento del relay se trata como señal de invalidación, no como
// fuente de datos: al recibir cualquier evento relevante se descarta
// la vista local y se relee el estado completo de la API. Como los
// eventos no traen orden ni versión, aplicarlos como deltas podría
// pisar estado nuevo con un payload viejo; el re-fetch completo evita
// esa clase de inconsistencia a costa de lecturas redundantes.
type Syncer struct {
	cl *Client

	// OnSnapshot recibe la vista fresca después de cada re-fetch.
	OnSnapshot func(personas []Persona)

	// OnEvent, opcional, recibe cada evento crudo (para notificaciones).
	OnEvent func(evento string, data json.RawMessage)

	// Backoff entre reintentos de conexión. Default: 3s.
	Backoff time.Duration
}

// NewSyncer crea un syncer sobre el cliente dado.
func NewSyncer(cl *Client) *Syncer {
	return &Syncer{cl: cl, Backoff: 3 * time.Second}
}

// Run se conecta al stream de eventos y procesa hasta que ctx se
// cancela. Si la conexión se cae, reintenta con backoff fijo; cada
// reconexión dispara un re-fetch, así un cliente que estuvo
// desconectado se auto-repara aunque se haya perdido eventos.
func (s *Syncer) Run(ctx context.Context) error {
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = 3 * time.Second
	}

	for {
		if err := s.stream(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// stream abre una conexión SSE y procesa frames hasta que se corta.
func (s *Syncer) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cl.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// cliente aparte, sin timeout: el stream vive hasta que ctx se
	// cancela
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// re-fetch al (re)conectar: cubre eventos perdidos durante la
	// desconexión
	s.refetch(ctx)

	var evento string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			evento = strings.TrimPrefix(line, "event: ")

		case strings.HasPrefix(line, "data: "):
			data := json.RawMessage(strings.TrimPrefix(line, "data: "))
			s.handle(ctx, evento, data)

		case line == "" || strings.HasPrefix(line, ":"):
			// fin de frame o heartbeat
		}
	}
	return scanner.Err()
}

func (s *Syncer) handle(ctx context.Context, evento string, data json.RawMessage) {
	switch evento {
	case "connected":
		var c struct {
			ClientID string `json:"clientId"`
		}
		if json.Unmarshal(data, &c) == nil {
			s.cl.setClientID(c.ClientID)
		}
		return
	case "":
		return
	}

	if s.OnEvent != nil {
		s.OnEvent(evento, data)
	}

	// cualquier evento de dominio invalida la vista entera
	s.refetch(ctx)
}

func (s *Syncer) refetch(ctx context.Context) {
	if s.OnSnapshot == nil {
		return
	}
	personas, err := s.cl.ListPersonas(ctx)
	if err != nil {
		return
	}
	s.OnSnapshot(personas)
}
