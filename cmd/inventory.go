package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/habedi/cwactl/client"
	"github.com/habedi/cwactl/db"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/habedi/cwactl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// inventoryCmd manages the local computer cache.
func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the local computer inventory",
	}
	cmd.AddCommand(
		inventoryRefreshCmd(),
		inventoryListCmd(),
		inventorySearchCmd(),
		inventoryInfoCmd(),
		inventoryExportCmd(),
	)
	return cmd
}

func computerRepo() db.ComputerRepository { return db.NewComputerRepository(db.GetDB()) }

func inventoryRefreshCmd() *cobra.Command {
	var (
		pageSize int
		clientID int
	)
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace the inventory with the computers currently on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidatePageSize(pageSize); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			opts := client.ComputerListOptions{ListOptions: client.ListOptions{PageSize: pageSize}, ClientID: clientID}
			n, err := refreshInventory(cmd.Context(), c, opts, computerRepo(), db.NewSyncRepository(db.GetDB()), cmd)
			if err != nil {
				return err
			}
			cmd.Printf("Refreshing completed successfully. There are %d computers in the inventory.\n", n)
			return nil
		},
	}
	cmd.Flags().IntVarP(&pageSize, "page-size", "s", client.DefaultPageSize, "Items per request [1-1000]")
	cmd.Flags().IntVar(&clientID, "client-id", 0, "Only fetch computers of this client")
	return cmd
}

// refreshInventory walks every computer page and replaces the stored rows.
// The old rows are kept when the walk fails.
func refreshInventory(ctx context.Context, c *client.Client, opts client.ComputerListOptions,
	repo db.ComputerRepository, syncRepo db.SyncRepository, cmd *cobra.Command) (int, error) {
	log.Info().Msg("Refreshing the computer inventory...")

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Fetching computers..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)

	now := time.Now().UTC()
	var rows []db.Computer
	skipped := 0
	for pc, err := range c.Computers.ListAll(opts).All(ctx) {
		if err != nil {
			_ = bar.Finish()
			return 0, clierr.FromAPI("fetch computers", err)
		}
		row, err := toInventoryRow(pc, now)
		if err != nil {
			log.Warn().Err(err).Int("id", pc.ID).Msg("Skipping computer that could not be encoded")
			skipped++
			continue
		}
		rows = append(rows, row)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := repo.Clear(ctx); err != nil {
		return 0, clierr.New(clierr.Internal, "failed to empty the inventory", err)
	}
	if err := repo.PutMany(ctx, rows); err != nil {
		return 0, clierr.New(clierr.Internal, "failed to store the inventory", err)
	}

	state := &db.SyncState{ServerURL: c.Config().ServerURL, Computers: len(rows), Failed: skipped, SyncedAt: now}
	if err := syncRepo.Upsert(ctx, state); err != nil {
		log.Error().Err(err).Msg("Failed to record the refresh time")
	}
	log.Info().Int("computers", len(rows)).Int("skipped", skipped).Msg("Inventory refreshed")
	return len(rows), nil
}

func toInventoryRow(pc client.Computer, syncedAt time.Time) (db.Computer, error) {
	raw, err := json.Marshal(pc)
	if err != nil {
		return db.Computer{}, err
	}
	row := db.Computer{
		ID:          pc.ID,
		Name:        pc.ComputerName,
		ClientID:    pc.ClientID,
		LocationID:  pc.LocationID,
		OS:          pc.OS,
		IsOnline:    pc.IsOnline,
		LastContact: pc.LastContact,
		Data:        string(raw),
		SyncedAt:    syncedAt,
	}
	if pc.Client != nil {
		row.ClientName = pc.Client.Name
	}
	if pc.Location != nil {
		row.LocationName = pc.Location.Name
	}
	return row, nil
}

func inventoryListCmd() *cobra.Command {
	var clientID int
	return withClientFilter(&cobra.Command{
		Use:   "list",
		Short: "Show the computers in the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				rows []db.Computer
				err  error
			)
			if clientID != 0 {
				rows, err = computerRepo().ListByClient(cmd.Context(), clientID)
			} else {
				rows, err = computerRepo().List(cmd.Context())
			}
			if err != nil {
				log.Error().Err(err).Msg("Failed to read the inventory")
				return clierr.New(clierr.Internal, "unable to list computers; check the logs for details", err)
			}
			if len(rows) == 0 {
				cmd.Println("No computers in the inventory. Use `cwactl inventory refresh` to fill it.")
				return nil
			}
			renderInventory(cmd, rows)

			if state, err := db.NewSyncRepository(db.GetDB()).Get(cmd.Context()); err == nil && state != nil {
				cmd.Printf("Last refreshed %s from %s\n", state.SyncedAt.Local().Format(time.RFC1123), state.ServerURL)
			}
			return nil
		},
	}, &clientID)
}

func withClientFilter(cmd *cobra.Command, clientID *int) *cobra.Command {
	cmd.Flags().IntVar(clientID, "client-id", 0, "Only computers of this client")
	return cmd
}

func renderInventory(cmd *cobra.Command, rows []db.Computer) {
	table := newTable(cmd.OutOrStdout(), "Row", "ID", "Name", "Client", "Location", "OS", "Online")
	table.SetColMinWidth(2, 30)
	for i, r := range rows {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.ID),
			oneLine(r.Name),
			oneLine(r.ClientName),
			oneLine(r.LocationName),
			oneLine(r.OS),
			strconv.FormatBool(r.IsOnline),
		})
	}
	table.Render()
}

func inventorySearchCmd() *cobra.Command {
	var (
		id   int
		term string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the inventory by computer ID or name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (id == 0) == (term == "") {
				return clierr.New(clierr.Validation, "exactly one of --id or --term is required", nil)
			}

			var rows []db.Computer
			if id != 0 {
				row, err := computerRepo().GetByID(cmd.Context(), id)
				if err != nil {
					return clierr.New(clierr.Internal, fmt.Sprintf("failed to look up computer %d", id), err)
				}
				if row != nil {
					rows = append(rows, *row)
				}
			} else {
				var err error
				if rows, err = computerRepo().SearchByName(cmd.Context(), term); err != nil {
					return clierr.New(clierr.Internal, "failed to search the inventory", err)
				}
			}

			if len(rows) == 0 {
				cmd.Println("No computer(s) found matching the search criteria.")
				return nil
			}
			renderInventory(cmd, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&id, "id", "i", 0, "ID of the computer")
	cmd.Flags().StringVarP(&term, "term", "t", "", "Case-insensitive part of the computer name")
	return cmd
}

func inventoryInfoCmd() *cobra.Command {
	var id int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the stored record of one computer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("computer", id); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			row, err := computerRepo().GetByID(cmd.Context(), id)
			if err != nil {
				return clierr.New(clierr.Internal, fmt.Sprintf("failed to look up computer %d", id), err)
			}
			if row == nil {
				return clierr.New(clierr.NotFound, fmt.Sprintf("no computer with ID %d in the inventory", id), nil)
			}

			var pretty any
			if err := json.Unmarshal([]byte(row.Data), &pretty); err != nil {
				cmd.Println(row.Data)
				return nil
			}
			out, _ := json.MarshalIndent(pretty, "", "  ")
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

func inventoryExportCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the inventory to a JSON or CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateExportFormat(format); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return clierr.New(clierr.Internal, "failed to create export directory", err)
			}
			rows, err := computerRepo().List(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Internal, "failed to read the inventory", err)
			}

			path := filepath.Join(dir, fmt.Sprintf("cwactl_inventory_%s.%s", time.Now().Format("20060102_150405"), format))
			if format == "json" {
				err = exportJSON(path, rows)
			} else {
				err = exportCSV(path, rows)
			}
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to export the inventory")
				return clierr.New(clierr.Internal, "failed to export the inventory", err)
			}
			cmd.Printf("Exported %d computers to %s\n", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to export the file to")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format [json, csv]")
	if err := cmd.MarkFlagRequired("dir"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'dir' flag as required")
	}
	return cmd
}

// exportJSON writes the full API records, not the summary columns.
func exportJSON(path string, rows []db.Computer) error {
	records := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		if json.Valid([]byte(r.Data)) {
			records = append(records, json.RawMessage(r.Data))
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func exportCSV(path string, rows []db.Computer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"ID", "Name", "ClientID", "ClientName", "LocationID", "LocationName", "OS", "IsOnline", "LastContact"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			strconv.Itoa(r.ID),
			r.Name,
			strconv.Itoa(r.ClientID),
			r.ClientName,
			strconv.Itoa(r.LocationID),
			r.LocationName,
			r.OS,
			strconv.FormatBool(r.IsOnline),
			r.LastContact,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
