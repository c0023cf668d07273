package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/laplace/internal/server"
	"github.com/msto63/laplace/pkg/core/logging"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC server in the foreground",
	Long: `Run the laplace.v1.Laplace gRPC service until interrupted.

Host, port, timeouts and the seed database come from the [server] and
[store] sections of the configuration; the flags override host and port.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := server.ConfigFrom(appConfig)
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if noStore {
		cfg.StorePath = ""
	}
	cfg.Service.Verbose = verbose
	cfg.Logger = logging.New("laplace-server")

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	if err := srv.StartAsync(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), statusLine("laplace serving on", srv.Address()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Stop(shutdown)
	fmt.Fprintln(cmd.OutOrStdout(), labelStyle.Render("stopped"))
	return nil
}
