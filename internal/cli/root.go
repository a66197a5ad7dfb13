// Package cli provides the command-line interface for termisql.
package cli

import (
	"fmt"
	"os"

	"github.com/Ellen-desu/termisql/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "termisql",
		Short: "Browse the tables of a SQL database in the terminal",
		Long: `termisql is a read-only terminal browser for SQLite, MySQL, MariaDB and
PostgreSQL databases. Pick a table, page through its rows, and watch the
view follow changes made by other clients.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
  commit: ` + Commit + `
  built: ` + BuildDate + `
`)

	config.BindGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSQLiteCmd())
	rootCmd.AddCommand(newServerCmd("mysql", "Browse a MySQL database"))
	rootCmd.AddCommand(newServerCmd("mariadb", "Browse a MariaDB database"))
	rootCmd.AddCommand(newServerCmd("postgres", "Browse a PostgreSQL database"))

	return rootCmd
}

func newSQLiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sqlite --file PATH",
		Aliases: []string{"sqlite3"},
		Short:   "Browse a SQLite database file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, "sqlite", "")
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	config.BindSQLiteFlags(cmd.Flags())
	_ = cmd.MarkFlagFilename("file", "db", "sqlite", "sqlite3", "db3")
	return cmd
}

func newServerCmd(backend, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   backend + " [flags] DATABASE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, backend, args[0])
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	config.BindServerFlags(cmd.Flags())
	return cmd
}

func loadConfig(cmd *cobra.Command, backend, database string) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(config.LoadOptions{
		File:     cfgFile,
		Backend:  backend,
		Database: database,
		Flags:    cmd.Flags(),
	})
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
