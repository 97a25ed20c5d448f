package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Probe the model backend and show availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		_, sessions, _, err := buildStack(ctx, "")
		if err != nil {
			return err
		}

		err = sessions.EnsureReady(ctx)
		var unavail *backend.UnavailableError
		if err != nil && !errors.As(err, &unavail) {
			return err
		}

		caps := sessions.Capabilities()
		fmt.Printf("Backend:     %s\n", cfg.Backend.Model)
		fmt.Printf("Available:   %s\n", caps.Available)
		fmt.Printf("Temperature: %.1f\n", caps.DefaultTemperature)
		fmt.Printf("Top-K:       %d\n", caps.DefaultTopK)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
