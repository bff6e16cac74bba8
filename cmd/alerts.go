package cmd

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/habedi/cwactl/client"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/habedi/cwactl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List and acknowledge monitoring alerts",
	}
	cmd.AddCommand(alertsListCmd(), alertsAckCmd(), alertsCloseCmd(), alertsStatsCmd())
	return cmd
}

func alertsListCmd() *cobra.Command {
	var (
		opts     client.AlertListOptions
		all      bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidatePageSize(pageSize); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			opts.PageSize = pageSize

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "ID", "Severity", "Status", "Computer", "Client", "Name", "Created")
			count := 0
			add := func(a client.Alert) {
				count++
				table.Append([]string{
					strconv.Itoa(a.ID),
					strconv.Itoa(a.Severity),
					a.Status,
					oneLine(a.ComputerName),
					oneLine(a.ClientName),
					oneLine(a.Name),
					a.DateCreated,
				})
			}

			if all {
				for a, err := range c.Alerts.ListAll(opts).All(cmd.Context()) {
					if err != nil {
						return clierr.FromAPI("list alerts", err)
					}
					add(a)
				}
			} else {
				page, err := c.Alerts.List(cmd.Context(), opts)
				if err != nil {
					return clierr.FromAPI("list alerts", err)
				}
				for _, a := range page.Data {
					add(a)
				}
			}

			if count == 0 {
				cmd.Println("No alerts found.")
				return nil
			}
			table.Render()
			log.Info().Int("count", count).Msg("Listed alerts")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Alert status [New, Acknowledged, Closed]")
	cmd.Flags().IntVar(&opts.ClientID, "client-id", 0, "Only alerts of this client")
	cmd.Flags().IntVar(&opts.ComputerID, "computer-id", 0, "Only alerts of this computer")
	cmd.Flags().IntVar(&opts.Severity, "severity", 0, "Only alerts of this severity")
	cmd.Flags().StringVarP(&opts.Condition, "condition", "c", "", "Server-side filter expression")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page to show when --all is not set")
	cmd.Flags().IntVarP(&pageSize, "page-size", "s", client.DefaultPageSize, "Items per request [1-1000]")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Walk every page")
	return cmd
}

func alertsAckCmd() *cobra.Command {
	return alertActionCmd("ack", "Acknowledge alerts", func(c *client.Client) alertAction {
		return c.Alerts.Acknowledge
	})
}

func alertsCloseCmd() *cobra.Command {
	return alertActionCmd("close", "Close alerts", func(c *client.Client) alertAction {
		return c.Alerts.Close
	})
}

type alertAction func(ctx context.Context, ids []int, notes string) (*client.AlertActionResult, error)

func alertActionCmd(use, short string, pick func(*client.Client) alertAction) *cobra.Command {
	var idList, notes string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := validation.ParseIDs("alert", idList)
			if err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			res, err := pick(c)(cmd.Context(), ids, notes)
			if err != nil {
				return clierr.FromAPI(short, err)
			}
			cmd.Printf("%d alert(s) updated.\n", res.Count)
			if len(res.FailedAlertIDs) > 0 {
				failed := make([]string, len(res.FailedAlertIDs))
				for i, id := range res.FailedAlertIDs {
					failed[i] = strconv.Itoa(id)
				}
				cmd.PrintErrf("Not updated: %s\n", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idList, "ids", "", "Comma-separated alert IDs")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Note stored with the change")
	if err := cmd.MarkFlagRequired("ids"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'ids' flag as required")
	}
	return cmd
}

func alertsStatsCmd() *cobra.Command {
	var clientID, locationID int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show alert counts by status and severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			s, err := c.Alerts.Statistics(cmd.Context(), clientID, locationID)
			if err != nil {
				return clierr.FromAPI("alert statistics", err)
			}
			cmd.Printf("Total: %d  New: %d  Acknowledged: %d  Closed: %d\n", s.Total, s.New, s.Acknowledged, s.Closed)
			if len(s.BySeverity) > 0 {
				table := newTable(cmd.OutOrStdout(), "Severity", "Count")
				for _, sev := range slices.Sorted(maps.Keys(s.BySeverity)) {
					table.Append([]string{sev, strconv.Itoa(s.BySeverity[sev])})
				}
				table.Render()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&clientID, "client-id", 0, "Scope to one client")
	cmd.Flags().IntVar(&locationID, "location-id", 0, "Scope to one location")
	return cmd
}
