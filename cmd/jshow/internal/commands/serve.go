package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lzy/jshow/config"
	"github.com/lzy/jshow/health"
	"github.com/lzy/jshow/observe"
	"github.com/lzy/jshow/token"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes, /metrics and an authenticated /whoami",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, cmd, opts, func(a *app) error {
				props, err := a.properties(ctx)
				if err != nil {
					return err
				}
				cfg, err := a.tokenConfig(ctx)
				if err != nil {
					return err
				}

				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return err
				}
				a.logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: ln.Addr().String()})
				return serve(ctx, ln, newMux(props, token.NewVerifier(props, cfg, token.WithMiddleware(a.mw))))
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func newMux(props *config.Properties, verifier *token.Verifier) *http.ServeMux {
	agg := health.NewAggregator()
	agg.Register(health.NewPropertiesChecker(props))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/whoami", token.RequireBearer(verifier, http.HandlerFunc(whoami)))
	return mux
}

func whoami(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(token.ClaimsFromContext(r.Context()))
}

func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
