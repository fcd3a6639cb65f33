// Package randomness contiene la lógica de evaluación e info del servicio.
// El service es stateless: todo lo que lee sale de un snapshot de oprf.State.
package randomness

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/starrand/internal/http/dto/randomness"
	"github.com/dropDatabas3/starrand/internal/metrics"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
	"github.com/dropDatabas3/starrand/internal/oprf"
	"github.com/dropDatabas3/starrand/internal/ppoprf"
)

// MaxPoints es el máximo de puntos aceptados en un único request.
const MaxPoints = 1024

// Service define las operaciones expuestas por los controllers.
type Service interface {
	Evaluate(ctx context.Context, req dto.RandomnessRequest) (*dto.RandomnessResponse, error)
	Info(ctx context.Context) (*dto.InfoResponse, error)
	Health(ctx context.Context) dto.HealthResponse
}

type service struct {
	state *oprf.State
}

// NewService crea el service sobre el estado compartido.
func NewService(state *oprf.State) Service {
	return &service{state: state}
}

const componentRandomness = "randomness"

// Evaluate valida el request y evalúa cada punto en el epoch activo.
// Todo ocurre dentro de un único Read: el epoch usado es el del snapshot.
func (s *service) Evaluate(ctx context.Context, req dto.RandomnessRequest) (*dto.RandomnessResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentRandomness),
		logger.Op("Evaluate"),
	)
	log.Debug("recv", logger.Points(len(req.Points)), logger.Any("epoch", req.Epoch))

	var resp *dto.RandomnessResponse
	err := s.state.Read(func(v oprf.Snapshot) error {
		current := v.Epoch()
		if req.Epoch != nil && *req.Epoch != current {
			return &oprf.BadEpochError{Epoch: *req.Epoch}
		}
		if len(req.Points) > MaxPoints {
			return oprf.ErrTooManyPoints
		}

		out := make([]string, 0, len(req.Points))
		for _, enc := range req.Points {
			raw, err := base64.StdEncoding.Strict().DecodeString(enc)
			if err != nil {
				return fmt.Errorf("%w: %v", oprf.ErrBase64, err)
			}
			if len(raw) != ppoprf.CompressedPointLen {
				return oprf.ErrBadPoint
			}
			p, err := ppoprf.PointFromBytes(raw)
			if err != nil {
				return oprf.ErrBadPoint
			}
			ev, err := v.Eval(p, false)
			if err != nil {
				return fmt.Errorf("%w: %v", oprf.ErrOPRF, err)
			}
			out = append(out, base64.StdEncoding.EncodeToString(ev.Output.Bytes()))
		}
		resp = &dto.RandomnessResponse{Points: out, Epoch: current}
		return nil
	})
	if err != nil {
		metrics.RandomnessRequests.WithLabelValues(resultLabel(err)).Inc()
		log.Debug("request rejected", logger.Err(err))
		return nil, err
	}

	metrics.RandomnessRequests.WithLabelValues("ok").Inc()
	metrics.PointsEvaluated.Add(float64(len(resp.Points)))
	log.Debug("send", logger.Points(len(resp.Points)), logger.Epoch(resp.Epoch))
	return resp, nil
}

// Info arma la respuesta de /info a partir de un snapshot.
func (s *service) Info(ctx context.Context) (*dto.InfoResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentRandomness),
		logger.Op("Info"),
	)

	var resp *dto.InfoResponse
	err := s.state.Read(func(v oprf.Snapshot) error {
		pk, err := v.PublicKey().MarshalBinary()
		if err != nil {
			return fmt.Errorf("%w: %v", oprf.ErrOPRF, err)
		}
		resp = &dto.InfoResponse{
			PublicKey:    base64.StdEncoding.EncodeToString(pk),
			CurrentEpoch: v.Epoch(),
			MaxPoints:    MaxPoints,
		}
		if next := v.NextRotation(); next != nil {
			ts := next.UTC().Format(time.RFC3339)
			resp.NextEpochTime = &ts
		}
		return nil
	})
	if err != nil {
		log.Warn("info failed", logger.Err(err))
		return nil, err
	}
	log.Debug("send", logger.Epoch(resp.CurrentEpoch))
	return resp, nil
}

// Health reporta ready mientras el guard no esté envenenado.
func (s *service) Health(ctx context.Context) dto.HealthResponse {
	var resp dto.HealthResponse
	err := s.state.Read(func(v oprf.Snapshot) error {
		epoch, gen := v.Epoch(), v.Generation()
		resp = dto.HealthResponse{Status: "ready", CurrentEpoch: &epoch, Generation: &gen}
		return nil
	})
	if err != nil {
		logger.From(ctx).Error("state unavailable", logger.Component(componentRandomness), logger.Err(err))
		return dto.HealthResponse{Status: "unavailable"}
	}
	return resp
}

// resultLabel clasifica el error para oprf_randomness_requests_total.
func resultLabel(err error) string {
	var be *oprf.BadEpochError
	switch {
	case errors.As(err, &be):
		return "bad_epoch"
	case errors.Is(err, oprf.ErrTooManyPoints):
		return "too_many_points"
	case errors.Is(err, oprf.ErrBadPoint):
		return "bad_point"
	case errors.Is(err, oprf.ErrBase64):
		return "base64"
	case errors.Is(err, oprf.ErrLockPoisoned):
		return "lock"
	default:
		return "oprf"
	}
}
