package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpx "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/metadata"
	"github.com/donpapitoskey/lista-de-regalos/internal/rate"
	"github.com/donpapitoskey/lista-de-regalos/internal/relay"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// Deps agrupa las dependencias que el router necesita.
type Deps struct {
	Store           *store.Store
	Service         *service.Service
	Relay           *relay.Handler
	Metadata        *metadata.Resolver
	MetadataLimiter rate.Limiter
}

// NewRouter arma el router completo del servicio.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	personas := NewPersonasHandler(d.Service)
	regalos := NewRegalosHandler(d.Service)

	// Health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", NewReadyzHandler(d.Store))
	r.Handle("/metrics", promhttp.Handler())

	// API de recursos
	r.Route("/api", func(r chi.Router) {
		r.Route("/personas", func(r chi.Router) {
			r.Get("/", personas.List)
			r.Post("/", personas.Create)

			r.Route("/{personaId}", func(r chi.Router) {
				r.Get("/", personas.Get)
				r.Put("/", personas.Update)
				r.Delete("/", personas.Delete)

				r.Route("/regalos", func(r chi.Router) {
					r.Get("/", regalos.List)
					r.Post("/", regalos.Create)
					r.Get("/{regaloId}", regalos.Get)
					r.Put("/{regaloId}", regalos.Update)
					r.Delete("/{regaloId}", regalos.Delete)
				})
			})
		})

		if d.Metadata != nil {
			md := NewMetadataHandler(d.Metadata)
			var h http.Handler = http.HandlerFunc(md.Resolve)
			if d.MetadataLimiter != nil {
				// el scraper hace fetch a sitios externos: limitado por IP
				h = httpx.WithRateLimit(h, d.MetadataLimiter)
			}
			r.Method(http.MethodPost, "/metadata", h)
		}
	})

	// Relay realtime
	if d.Relay != nil {
		r.Get("/events", d.Relay.ServeStream)
		r.Post("/events", d.Relay.ServeEmit)
	}

	return r
}
