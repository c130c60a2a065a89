package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/fakeapi"
)

const shutdownGrace = 5 * time.Second

// serveFakeCmd runs the in-memory backend for local development. Pair it
// with GIG_PHONE_PROVIDER=fake; the default GIG_API_BASE_URL already points here.
func (c *cli) serveFakeCmd() *cobra.Command {
	var (
		addr    string
		rps     float64
		burst   int
		origins []string
	)
	cmd := &cobra.Command{
		Use:         "serve-fake",
		Short:       "Run an in-memory marketplace backend",
		Args:        cobra.NoArgs,
		Annotations: withGate(gateNone),
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []fakeapi.Option{fakeapi.WithLogger(c.logger.Named("fakeapi"))}
			if rps > 0 {
				opts = append(opts, fakeapi.WithRateLimit(rps, burst))
			}
			backend := fakeapi.New(opts...)

			r := chi.NewRouter()
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   origins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("OK"))
			})
			r.Mount("/", backend)

			return c.listen(cmd.Context(), addr, r, backend)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":5000", "listen address")
	f.Float64Var(&rps, "rate", 0, "requests per second per token, 0 for unlimited")
	f.IntVar(&burst, "burst", 10, "rate limit burst")
	f.StringSliceVar(&origins, "cors-origin", []string{"http://localhost:8081", "http://localhost:19006"}, "allowed browser origins")
	return cmd
}

func (c *cli) listen(ctx context.Context, addr string, h http.Handler, backend *fakeapi.Server) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	c.logger.Info("fake backend listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("api", "http://"+ln.Addr().String()+fakeapi.Prefix))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	c.logger.Info("shutting down")
	// Hijacked chat sockets are not tracked by Shutdown.
	backend.DropConnections()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
