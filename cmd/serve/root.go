package serve

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/sicko7947/wldstore/cmd/util"
	"github.com/sicko7947/wldstore/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ServeCmd starts the HTTP server
	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow, annotation and preferences stores over HTTP",
		RunE:  run,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupStoreFlags(ServeCmd)
	ServeCmd.Flags().String("addr", ":3000", util.WrapString("Address to listen on"))
	ServeCmd.Flags().Duration("shutdown-timeout", 10*time.Second, util.WrapString("How long to wait for open requests on shutdown"))
}

func run(cmd *cobra.Command, _ []string) error {
	s, err := util.OpenStores(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := server.New(s.Set, server.WithLogger(s.Logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(viper.GetString("addr"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.Logger.Info().Msg("Shutting down")
		return srv.Shutdown(viper.GetDuration("shutdown-timeout"))
	}
}
