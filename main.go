package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/api/handlers"
	"github.com/linesmerrill/forum-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	//initialize database, router, socket server and scheduler
	if err := a.Initialize(); err != nil {
		zap.S().Fatalw("failed to initialize forum-api", "error", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", a.Config.Port),
		Handler: a.Router,
	}

	go func() {
		zap.S().Infow("forum-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Warnw("failed to shut down http server", "error", err)
	}
	a.Close(ctx)
	zap.S().Info("forum-api stopped")
}
