package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tripbot/config"
	"tripbot/db/pg"
	"tripbot/engine"
	"tripbot/flow"
	gw "tripbot/gateway/gateway"
	"tripbot/gateway/gcppubsub"
	"tripbot/gateway/goch"
	"tripbot/gateway/rabbit"
	"tripbot/provider"
	"tripbot/session"
	"tripbot/web"
)

func serverCommand() *cobra.Command {
	var isDev bool
	var port string
	var gatewayKind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the chat service",
		Run: func(cmd *cobra.Command, args []string) {
			if port == "" {
				port = config.Port()
			}
			if gatewayKind == "" {
				gatewayKind = config.GatewayKind()
			}

			gormDB, err := pg.InitPostgresGORM(pg.CreateDSN())
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer pg.CloseGORM(gormDB)
			store := pg.NewGORMStore(gormDB)

			sessions := session.NewMemoryStore()
			if addr := config.RedisAddr(); addr != "" {
				client := redis.NewClient(&redis.Options{Addr: addr})
				sessions = session.NewRedisStore(client, 24*time.Hour)
			}

			deps, err := buildProviders(config.CacheDir())
			if err != nil {
				log.Fatalf("Failed to initialize providers: %v", err)
			}

			eng := engine.New(store, sessions, nil)
			if err := flow.RegisterAll(eng, deps); err != nil {
				log.Fatalf("Failed to register flows: %v", err)
			}

			g, err := buildGateway(gatewayKind)
			if err != nil {
				log.Fatalf("Failed to initialize gateway: %v", err)
			}

			web.Serve(web.ServiceConfig{
				IsDev:   isDev,
				Port:    port,
				Engine:  eng,
				Gateway: g,
			})
		},
	}

	cmd.Flags().BoolVar(&isDev, "dev", false, "run in development mode")
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default PORT or 8080)")
	cmd.Flags().StringVar(&gatewayKind, "gateway", "", "message transport: channel, rabbitmq or pubsub")
	return cmd
}

func buildProviders(cacheDir string) (flow.Deps, error) {
	weather, err := provider.NewWeatherClient(filepath.Join(cacheDir, "weather"))
	if err != nil {
		return flow.Deps{}, fmt.Errorf("weather client: %w", err)
	}
	hotels, err := provider.NewHotelClient(filepath.Join(cacheDir, "hotels"))
	if err != nil {
		return flow.Deps{}, fmt.Errorf("hotel client: %w", err)
	}
	route, err := provider.NewRouteClient(filepath.Join(cacheDir, "maps"))
	if err != nil {
		return flow.Deps{}, fmt.Errorf("route client: %w", err)
	}
	return flow.Deps{Weather: weather, Hotels: hotels, Route: route}, nil
}

func buildGateway(kind string) (gw.Gateway, error) {
	switch kind {
	case "channel":
		return goch.NewGateway(64), nil
	case "rabbitmq":
		conn := rabbit.NewRabbitConnection(rabbit.CreateAmqpURL())
		return rabbit.NewGateway(conn)
	case "pubsub":
		return gcppubsub.NewGateway(context.Background(), gcppubsub.GetGCPProjectID())
	default:
		return nil, fmt.Errorf("unknown gateway kind: %s", kind)
	}
}
