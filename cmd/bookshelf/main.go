package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bookshelf/internal/app"
	"github.com/MrSnakeDoc/bookshelf/internal/config"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/sources/seed"
	"github.com/MrSnakeDoc/bookshelf/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Personal bookshelf served over HTTP",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = loggerClient.Sync() }()

			a, err := app.New(cmd.Context(), cfg, loggerClient)
			if err != nil {
				loggerClient.Error("startup failed", logger.Error(err))
				return err
			}
			return a.Run()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env, ignored when missing)")

	root.AddCommand(newVersionCmd(), newSeedCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bookshelf %s (commit=%s, built=%s, go=%s)\n",
				version.Version, version.Commit, version.BuildDate, version.GoVersion)
			return err
		},
	}
}

// newSeedCmd parses a seed file and lists what would be shelved, without
// starting the server.
func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Check a seed file and list its books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("BOOKSHELF_SEED_FILE")
			}
			return printSeed(cmd.OutOrStdout(), seed.NewLoader(file))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (default BOOKSHELF_SEED_FILE or the built-in shelf)")
	return cmd
}

func printSeed(w io.Writer, l *seed.Loader) error {
	f, err := l.Load()
	if err != nil {
		return err
	}
	cmds := f.Commands()
	if _, err := fmt.Fprintf(w, "%d books from %s\n", len(cmds), l.Source()); err != nil {
		return err
	}
	for _, c := range cmds {
		b := c.Fields()
		state := "unread"
		if b.Read {
			state = "read"
		}
		if _, err := fmt.Fprintf(w, "  %-40s %-25s %s\n", b.Title, b.Author, state); err != nil {
			return err
		}
	}
	return nil
}
