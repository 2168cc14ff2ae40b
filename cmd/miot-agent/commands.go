package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/javen-yan/miot-agent/internal/device"
	"github.com/javen-yan/miot-agent/internal/infrastructure/config"
	"github.com/javen-yan/miot-agent/internal/infrastructure/database"
	"github.com/javen-yan/miot-agent/internal/tool"
	"github.com/javen-yan/miot-agent/migrations"
)

func newToolsCmd() *cobra.Command {
	var (
		category string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Listing never calls a handler, so the adapter stays unwired.
			registry, err := newRegistry(device.NewAdapter(device.AdapterOptions{}), nil)
			if err != nil {
				return err
			}

			if format != "" {
				data, err := registry.ExportSchema(format)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			tools := registry.Tools()
			if category != "" {
				tools = registry.ToolsByCategory(category)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tDESCRIPTION")
			for _, t := range tools {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Category, t.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list tools in this category")
	cmd.Flags().StringVar(&format, "format", "", "export the schema instead (\""+tool.FormatOpenAI+"\")")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			if !force && fileExists(path) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list database migrations",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default: database.path from --config)")

	withDB := func(run func(cmd *cobra.Command, db *database.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			path := dbPath
			if path == "" {
				cfg, err := loadConfig(serveOptions{configPath: getConfigFlag(cmd)})
				if err != nil {
					return err
				}
				path = cfg.Database.Path
			}
			db, err := database.Open(cmd.Context(), database.Config{Path: path, WALMode: true, BusyTimeout: 5})
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck // Read-mostly command
			return run(cmd, db)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *database.DB) error {
				return db.Migrate(cmd.Context(), migrations.FS)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest applied migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *database.DB) error {
				return db.MigrateDown(cmd.Context(), migrations.FS)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *database.DB) error {
				applied, pending, err := db.MigrationStatus(cmd.Context(), migrations.FS)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATUS")
				for _, r := range applied {
					fmt.Fprintf(w, "%s\tapplied %s\n", r.Version, r.AppliedAt.Format(time.RFC3339))
				}
				for _, m := range pending {
					fmt.Fprintf(w, "%s\tpending\n", m.Version)
				}
				return w.Flush()
			}),
		},
	)
	return cmd
}

func getConfigFlag(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	return getConfigPath()
}
