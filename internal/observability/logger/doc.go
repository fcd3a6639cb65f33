// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su logger "scoped" (request_id, method,
//     path) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (LOG_LEVEL o --log-level).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx)
//	log.Debug("recv randomness request", logger.Points(len(req.Points)))
//
// En componentes de fondo (rotator):
//
//	logger.Named("rotator").Info("epoch now", logger.Epoch(e))
package logger
