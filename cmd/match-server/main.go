package main

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/arena"
	"rps-arena/internal/config"
	"rps-arena/internal/logging"
	"rps-arena/internal/transport/http"
	"rps-arena/internal/transport/tcpline"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	coord := arena.NewCoordinator(arena.OptionsFromConfig(cfg.Server))
	coord.StartJanitor(context.Background())

	opsServer := &nethttp.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           http.NewRouter(coord),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		log.Fatal().Err(opsServer.ListenAndServe()).Msg("http server stopped")
	}()

	gameServer := tcpline.NewServer(coord, cfg.Server.TCPAddr)
	log.Fatal().Err(gameServer.Listen(context.Background())).Msg("tcp server stopped")
}
