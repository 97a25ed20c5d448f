package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
	"github.com/sid-lpcd/travel-chrome-extension/internal/pipeline"
)

var (
	scoutURL   string
	scoutQuery string
	scoutModel string
)

var scoutCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scan a page and list its places by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		orch, _, _, err := buildStack(ctx, scoutModel)
		if err != nil {
			return err
		}

		fmt.Printf("Loading %s...\n", scoutURL)
		if err := orch.Load(ctx, scoutURL); err != nil {
			return err
		}
		if box := orch.BoundingBox(); box.Valid() {
			fmt.Printf("Search biased around %.4f, %.4f\n", box.CenterLat, box.CenterLon)
		}

		results, rendered, err := orch.Submit(ctx, scoutQuery)
		switch {
		case errors.Is(err, pipeline.ErrMalformedModelOutput):
			return fmt.Errorf("the model kept producing malformed output; try again")
		case err != nil:
			var unavail *backend.UnavailableError
			if errors.As(err, &unavail) {
				return fmt.Errorf("cannot run: %s", unavail.Error())
			}
			return err
		}

		if len(results) == 0 {
			fmt.Println("No places found on this page.")
			return nil
		}

		for _, cr := range results {
			fmt.Printf("\n%s\n", cr.Title)
			for _, p := range cr.Places {
				marker := " "
				if p.Selected {
					marker = "*"
				}
				fmt.Printf("  [%s] %s - %s (%s, %s)\n",
					marker, p.Name, p.Address, p.Coordinates.Lat, p.Coordinates.Lon)
			}
		}

		if rendered != "" {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err == nil {
				if out, err := r.Render(rendered); err == nil {
					fmt.Print(out)
					return nil
				}
			}
			fmt.Println(rendered)
		}
		return nil
	},
}

func init() {
	scoutCmd.Flags().StringVar(&scoutURL, "url", "", "Page URL to scan")
	scoutCmd.Flags().StringVar(&scoutQuery, "query", "", "Optional free-text interest (e.g. \"museums and food\")")
	scoutCmd.Flags().StringVar(&scoutModel, "model", "", "Override the configured model")
	_ = scoutCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(scoutCmd)
}
