package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/habedi/cwactl/client"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/habedi/cwactl/pkg/pool"
	"github.com/habedi/cwactl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func computersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "computers",
		Short: "Query and control managed computers",
	}
	cmd.AddCommand(
		computersListCmd(),
		computersInfoCmd(),
		powerCmd("restart", "Restart computers", func(ctx context.Context, c *client.Client, id int, force bool) error {
			return c.Computers.Restart(ctx, id, client.PowerOptions{Force: force})
		}),
		powerCmd("wakeup", "Send wake-on-LAN to computers", func(ctx context.Context, c *client.Client, id int, _ bool) error {
			return c.Computers.WakeUp(ctx, id)
		}),
	)
	return cmd
}

func computersListCmd() *cobra.Command {
	var (
		opts     client.ComputerListOptions
		all      bool
		online   bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List computers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidatePageSize(pageSize); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			opts.PageSize = pageSize
			if cmd.Flags().Changed("online") {
				opts.IsOnline = client.Bool(online)
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			var computers []client.Computer
			if all {
				computers, err = c.Computers.ListAll(opts).Collect(cmd.Context())
			} else {
				var page *client.ListResponse[client.Computer]
				if page, err = c.Computers.List(cmd.Context(), opts); err == nil {
					computers = page.Data
				}
			}
			if err != nil {
				return clierr.FromAPI("list computers", err)
			}

			if len(computers) == 0 {
				cmd.Println("No computers found.")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Name", "Client", "Location", "OS", "Online", "Last Contact")
			for _, pc := range computers {
				table.Append(computerRow(pc))
			}
			table.Render()
			log.Info().Int("count", len(computers)).Msg("Listed computers")
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.ClientID, "client-id", 0, "Only computers of this client")
	cmd.Flags().IntVar(&opts.LocationID, "location-id", 0, "Only computers at this location")
	cmd.Flags().StringVarP(&opts.Condition, "condition", "c", "", "Server-side filter expression")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "Sort expression, e.g. \"ComputerName asc\"")
	cmd.Flags().BoolVar(&online, "online", false, "Only online (true) or offline (false) computers")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page to show when --all is not set")
	cmd.Flags().IntVarP(&pageSize, "page-size", "s", client.DefaultPageSize, "Items per request [1-1000]")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Walk every page")
	return cmd
}

func computerRow(pc client.Computer) []string {
	clientName, locationName := strconv.Itoa(pc.ClientID), strconv.Itoa(pc.LocationID)
	if pc.Client != nil && pc.Client.Name != "" {
		clientName = pc.Client.Name
	}
	if pc.Location != nil && pc.Location.Name != "" {
		locationName = pc.Location.Name
	}
	return []string{
		strconv.Itoa(pc.ID),
		oneLine(pc.ComputerName),
		oneLine(clientName),
		oneLine(locationName),
		oneLine(pc.OS),
		strconv.FormatBool(pc.IsOnline),
		pc.LastContact,
	}
}

func computersInfoCmd() *cobra.Command {
	var id int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show everything the server knows about one computer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("computer", id); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			pc, err := c.Computers.Get(cmd.Context(), id)
			if err != nil {
				return clierr.FromAPI(fmt.Sprintf("get computer %d", id), err)
			}
			out, err := json.MarshalIndent(pc, "", "  ")
			if err != nil {
				return clierr.New(clierr.Internal, "failed to format computer", err)
			}
			cmd.Println(string(out))
			return nil
		},
	}
	cmd.Flags().IntVarP(&id, "id", "i", 0, "ID of the computer")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'id' flag as required")
	}
	return cmd
}

type powerFunc func(ctx context.Context, c *client.Client, id int, force bool) error

// powerCmd builds a bulk action over a list of computer ids.
func powerCmd(use, short string, action powerFunc) *cobra.Command {
	var (
		idList     string
		numThreads int
		force      bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := validation.ParseIDs("computer", idList)
			if err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := validation.ValidateThreadCount(numThreads); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(ids),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(use+"..."),
				progressbar.OptionSetWidth(20),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			results := pool.Run(cmd.Context(), ids, numThreads, func(ctx context.Context, id int) error {
				return action(ctx, c, id, force)
			}, func() { _ = bar.Add(1) })
			_ = bar.Finish()

			return reportBulk(cmd, use, results)
		},
	}

	cmd.Flags().StringVar(&idList, "ids", "", "Comma-separated computer IDs")
	cmd.Flags().IntVarP(&numThreads, "threads", "t", 5, "Number of concurrent requests [1-20]")
	if use == "restart" {
		cmd.Flags().BoolVarP(&force, "force", "f", false, "Restart even when a user is logged in")
	}
	if err := cmd.MarkFlagRequired("ids"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'ids' flag as required")
	}
	return cmd
}

// reportBulk prints per-id failures and returns an error when any id failed.
func reportBulk(cmd *cobra.Command, action string, results []pool.Result[int]) error {
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		cmd.PrintErrf("%s %d: %s\n", action, r.Item, clierr.FromAPI(action, r.Err).Message)
	}
	cmd.Printf("%s: %d succeeded, %d failed\n", action, len(results)-failed, failed)
	if failed > 0 {
		return clierr.New(clierr.Remote, fmt.Sprintf("%s failed for %d of %d computers", action, failed, len(results)), nil)
	}
	return nil
}
