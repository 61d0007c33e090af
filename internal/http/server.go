package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
)

// Start levanta el server y lo apaga con gracia cuando ctx se cancela.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info("servidor escuchando", logger.Path(addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// los streams SSE abiertos no terminan solos: cerrar duro
			return srv.Close()
		}
		return nil
	})

	return g.Wait()
}
