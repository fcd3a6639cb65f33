package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/starrand/internal/app"
	"github.com/dropDatabas3/starrand/internal/config"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
)

var version = "dev"

func main() {
	var (
		flagConfigPath string
		flagEnvFile    string
		flagPrint      bool

		listen       string
		epochSeconds uint32
		firstEpoch   uint8
		lastEpoch    uint8
		logLevel     string
		trustProxy   bool
	)

	root := &cobra.Command{
		Use:           "star-randomness",
		Short:         "Servidor de randomness STAR (PPOPRF con rotación de epochs)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env opcional: si no existe seguimos con el entorno del sistema
			_ = godotenv.Load(flagEnvFile)

			if flagConfigPath == "" {
				flagConfigPath = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			// Flags > ENV > YAML > defaults
			fs := cmd.Flags()
			if fs.Changed("listen") {
				cfg.Server.Addr = listen
			}
			if fs.Changed("epoch-seconds") {
				cfg.Epoch.Seconds = epochSeconds
			}
			if fs.Changed("first-epoch") {
				cfg.Epoch.First = firstEpoch
			}
			if fs.Changed("last-epoch") {
				cfg.Epoch.Last = lastEpoch
			}
			if fs.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if fs.Changed("trust-proxy") {
				cfg.Server.TrustProxy = trustProxy
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			if flagPrint {
				b, _ := yaml.Marshal(cfg)
				fmt.Print(string(b))
				return nil
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: logger.DefaultServiceName,
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx, cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&flagConfigPath, "config", "", "ruta a config.yaml (fallback: $CONFIG_PATH)")
	f.StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env (si existe, se carga)")
	f.BoolVar(&flagPrint, "print-config", false, "imprime config efectiva y termina")
	f.StringVar(&listen, "listen", "127.0.0.1:8080", "dirección de escucha")
	f.Uint32Var(&epochSeconds, "epoch-seconds", 5, "duración de cada epoch en segundos")
	f.Uint8Var(&firstEpoch, "first-epoch", 0, "primer epoch del rango")
	f.Uint8Var(&lastEpoch, "last-epoch", 255, "último epoch del rango")
	f.StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	f.BoolVar(&trustProxy, "trust-proxy", false, "rate limit por X-Forwarded-For (solo detrás de un proxy propio)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
