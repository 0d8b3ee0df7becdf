package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/pathviz/pathviz/pkg/http/router"
	"github.com/pathviz/pathviz/pkg/http/router/controllers"
	http_server "github.com/pathviz/pathviz/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the API in the background. Wait returns once it stops.
func (s *Server) Use(
	ctx context.Context,
	useRateLimit bool,
	explorerService controllers.ExplorerService,
) *Server {
	config := http_server.Config{
		Port:    viper.GetInt("API_PORT"),
		Timeout: viper.GetDuration("API_TIMEOUT"),
	}

	api := http_router.NewAPI(s.Log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx, config, useRateLimit, explorerService)
	})
	s.g = g
	return s
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(ctx context.Context, log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
	}()
	return ctx, cancel
}
