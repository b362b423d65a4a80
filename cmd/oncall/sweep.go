package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/app"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate triggered incidents older than --timeout seconds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Incidents().Sweep(ctx, time.Duration(timeoutSeconds)*time.Second)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(result)
				}
				fmt.Printf("Escalated %d incident(s), %d failed\n", result.Escalated, result.Failed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 300, "age in seconds after which a triggered incident is escalated")
	return cmd
}
