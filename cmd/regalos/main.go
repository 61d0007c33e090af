package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/donpapitoskey/lista-de-regalos/internal/config"
	httpserver "github.com/donpapitoskey/lista-de-regalos/internal/http"
	"github.com/donpapitoskey/lista-de-regalos/internal/http/handlers"
	"github.com/donpapitoskey/lista-de-regalos/internal/metadata"
	"github.com/donpapitoskey/lista-de-regalos/internal/metrics"
	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
	"github.com/donpapitoskey/lista-de-regalos/internal/rate"
	"github.com/donpapitoskey/lista-de-regalos/internal/relay"
	"github.com/donpapitoskey/lista-de-regalos/internal/service"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
	"github.com/donpapitoskey/lista-de-regalos/pkg/client"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// loadConfig resuelve la config: YAML si hay archivo, env si no.
func loadConfig(configPath, envFile string) (*config.Config, error) {
	if envFile != "" && fileExists(envFile) {
		if err := godotenv.Load(envFile); err == nil {
			fmt.Fprintf(os.Stderr, "dotenv: cargado %s\n", envFile)
		}
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" && fileExists("configs/config.yaml") {
		configPath = "configs/config.yaml"
	}
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.FromEnv(), nil
}

func newServeCmd() *cobra.Command {
	var (
		flagConfig  string
		flagEnvFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor de la lista de regalos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig, flagEnvFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "lista-de-regalos",
			})
			defer func() { _ = logger.Sync() }()

			if err := metrics.Register(nil); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			st := store.New(cfg.Store.Path)
			if err := st.Seed(); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			svc := service.New(st, cfg.Regalos.MaxPorPersona)
			broadcaster := relay.NewBroadcaster(cfg.Relay.Buffer)
			defer broadcaster.Close()
			relayHandler := relay.NewHandler(broadcaster, cfg.RelayHeartbeat())
			resolver := metadata.NewResolver(cfg.MetadataTimeout(), cfg.MetadataCacheTTL())

			router := handlers.NewRouter(handlers.Deps{
				Store:           st,
				Service:         svc,
				Relay:           relayHandler,
				Metadata:        resolver,
				MetadataLimiter: rate.NewMemoryLimiter("metadata:", cfg.Metadata.RateMax, cfg.MetadataRateWindow()),
			})

			handler := httpserver.WithLogging(
				httpserver.WithRecover(
					httpserver.WithRequestID(
						httpserver.WithMetrics(
							httpserver.WithCORS(router, cfg.Server.CORSAllowedOrigins),
						),
					),
				),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.L().Info("lista-de-regalos iniciando",
				logger.Path(cfg.Server.Addr),
				logger.Evento("serve"),
			)
			return httpserver.Start(ctx, cfg.Server.Addr, handler)
		},
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env (si existe, se carga)")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var flagPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea el documento vacío si no existe",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(flagPath)
			if err := st.Seed(); err != nil {
				return err
			}
			fmt.Printf("documento listo en %s\n", st.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&flagPath, "db", "db.json", "ruta del documento JSON")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var flagURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Se suscribe al relay e imprime cada cambio con la vista fresca",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(flagURL)
			syncer := client.NewSyncer(cl)

			syncer.OnEvent = func(evento string, data json.RawMessage) {
				fmt.Printf("%s %s\n", evento, data)
			}
			syncer.OnSnapshot = func(personas []client.Persona) {
				for _, p := range personas {
					fmt.Printf("  %d. %s (%d regalos)\n", p.ID, p.Nombre, len(p.Regalos))
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("escuchando eventos de %s\n", flagURL)
			err := syncer.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flagURL, "url", "http://localhost:3000", "URL base del servidor")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "regalos",
		Short: "Servidor y herramientas de la lista de regalos compartida",
	}
	root.AddCommand(newServeCmd(), newSeedCmd(), newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
