// Package metrics define las métricas Prometheus del servicio.
// Viven en un paquete propio para evitar ciclos de import entre el
// store, el relay y el paquete HTTP.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})

	// Store
	StoreEscriturasTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_escrituras_total",
		Help: "Escrituras completas del documento al disco",
	})

	// Relay
	RelayClientes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_clientes",
		Help: "Clientes conectados al stream de eventos",
	})

	RelayEventosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_eventos_total",
		Help: "Eventos retransmitidos por tipo",
	}, []string{"evento"})

	RelayDescartadosTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_descartados_total",
		Help: "Eventos descartados por suscriptores lentos",
	})

	// Metadata
	MetadataLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metadata_lookups_total",
		Help: "Lookups de metadata por resultado",
	}, []string{"resultado"}) // ok | cache | error
)

// Register registra todas las métricas en el registry indicado
// (default si es nil). Idempotente; tolera duplicados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registerOnce.Do(func() {
		collectors := []prometheus.Collector{
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPInflight,
			StoreEscriturasTotal,
			RelayClientes,
			RelayEventosTotal,
			RelayDescartadosTotal,
			MetadataLookupsTotal,
		}
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					registerErr = err
					return
				}
			}
		}
	})
	return registerErr
}
