package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del ciclo de vida de epochs. Viven en un paquete aparte para evitar
// ciclos de import entre oprf (rotator) y la capa HTTP.

var (
	CurrentEpoch = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oprf_current_epoch",
		Help: "Epoch activo para evaluaciones",
	})

	Generation = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oprf_generation",
		Help: "Generación de clave actual (regeneraciones desde el arranque)",
	})

	EpochRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oprf_epoch_rotations_total",
		Help: "Rotaciones de epoch completadas (puncture + avance)",
	})

	KeyGenerations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oprf_key_generations_total",
		Help: "Claves regeneradas por agotamiento del rango de epochs",
	})

	PointsEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oprf_points_evaluated_total",
		Help: "Puntos evaluados con éxito",
	})

	RandomnessRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oprf_randomness_requests_total",
		Help: "Requests a /randomness por resultado",
	}, []string{"result"}) // ok | bad_epoch | too_many_points | bad_point | base64 | oprf | lock | invalid_json
)

// RegisterOPRF registra las métricas en el registry indicado (o el default si es nil).
func RegisterOPRF(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		CurrentEpoch,
		Generation,
		EpochRotations,
		KeyGenerations,
		PointsEvaluated,
		RandomnessRequests,
	} {
		if err := registerCollector(reg, c); err != nil {
			return err
		}
	}
	return nil
}
