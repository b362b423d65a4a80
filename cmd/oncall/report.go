package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/app"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var (
		serviceName string
		since       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print MTTA/MTTR statistics for resolved incidents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				filter := incidents.StatsFilter{ServiceName: serviceName}
				if since > 0 {
					from := time.Now().UTC().Add(-since)
					filter.From = &from
				}

				stats, err := a.Incidents().Stats(ctx, filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(stats)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle(reportTitle(serviceName))
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRows([]table.Row{
					{"Total incidents", stats.TotalIncidents},
					{"Resolved", stats.ResolvedCount},
					{"MTTA (min)", minutes(stats.MTTAMinutes)},
					{"MTTR (min)", minutes(stats.MTTRMinutes)},
				})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&serviceName, "service", "", "restrict to one service")
	cmd.Flags().DurationVar(&since, "since", 0, "only incidents created within this window, e.g. 168h")
	return cmd
}

func incidentsCmd() *cobra.Command {
	var (
		status      string
		serviceName string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List incidents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := incidents.ListFilter{ServiceName: serviceName, Limit: limit}
			if status != "" {
				s := domain.IncidentStatus(status)
				if !s.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = &s
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				list, err := a.Incidents().List(ctx, filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Service", "Title", "Status", "Assigned To", "Created"})
				for _, inc := range list {
					assignee := ""
					if inc.AssignedTo != nil {
						assignee = *inc.AssignedTo
					}
					tw.AppendRow(table.Row{inc.ID, inc.ServiceName, inc.Title, inc.Status, assignee, inc.CreatedAt.Format(time.RFC3339)})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "Total", len(list)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (TRIGGERED, ACKNOWLEDGED, ESCALATED, RESOLVED)")
	cmd.Flags().StringVar(&serviceName, "service", "", "service filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func reportTitle(serviceName string) string {
	if serviceName == "" {
		return "Incident statistics"
	}
	return "Incident statistics: " + serviceName
}

func minutes(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
