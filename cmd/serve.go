package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sid-lpcd/travel-chrome-extension/internal/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive place-scout web app",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("host") {
			serveHost = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") {
			servePort = cfg.Server.Port
		}

		orch, sessions, source, err := buildStack(context.Background(), "")
		if err != nil {
			return err
		}

		srv := &web.Server{
			Pipeline: orch,
			Sessions: sessions,
			Source:   source,
			Addr:     fmt.Sprintf("%s:%d", serveHost, servePort),
			Log:      logger,
		}
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
