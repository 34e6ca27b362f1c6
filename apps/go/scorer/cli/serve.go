package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roofscore/apps/go/scorer/api"
	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/tasks"
	"roofscore/packages/go/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func ServeCommand(opts *Options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mission score HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := opts.initialize()
			defer ac.Close()
			if listen != "" {
				ac.Config.Http.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, ac)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on, overrides http.listen")
	return cmd
}

// NewHandler builds the HTTP API on the app dependencies.
func NewHandler(ac *common.App) http.Handler {
	if ac.Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	deps := api.Deps{
		Service: ac.Service,
		Submitter: tasks.NewSubmitter(
			ac.TemporalClient,
			ac.Scores,
			ac.Status,
			ac.Config.Temporal,
			ac.Observer(),
			logger.Component(ac.Logger, "submitter"),
		),
		Status:   ac.Status,
		Missions: ac.Missions,
		Cors:     ac.Config.Http.Cors,
		Logger:   logger.Component(ac.Logger, "http"),
	}
	if ac.Metrics != nil {
		deps.Metrics = ac.Metrics.Handler()
	}
	return api.NewRouter(deps)
}

// Serve runs the HTTP API until ctx is done, then drains in flight requests.
func Serve(ctx context.Context, ac *common.App) error {
	srv := &http.Server{
		Addr:              ac.Config.Http.Listen,
		Handler:           NewHandler(ac),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ac.Logger.Info().Str("listen", srv.Addr).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	ac.Logger.Info().Msg("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
