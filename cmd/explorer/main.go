// Command explorer browses the city catalog, favorites and comments from a
// terminal, against the same storage backend as the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/bootstrap"
	"global_explorer/internal/shared"
)

// cli holds the services for the running command.
type cli struct {
	app     *bootstrap.App
	storage string
	timeout time.Duration
	plain   bool
}

func newCLI() (*cli, *cobra.Command) {
	c := &cli{}
	root := &cobra.Command{
		Use:           "explorer",
		Short:         "Browse cities, favorites and comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			level := cfg.LogLevel
			if os.Getenv("LOG_LEVEL") == "" {
				level = "warn"
			}
			log.Logger = observability.NewConsoleLogger(cmd.ErrOrStderr(), level)

			// memory storage would forget everything between invocations
			if c.storage != "" {
				cfg.StorageDriver = c.storage
			} else if os.Getenv("STORAGE_DRIVER") == "" {
				cfg.StorageDriver = "badger"
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()
			a, err := bootstrap.Build(ctx, cfg)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.storage, "storage", "", "storage driver: memory|redis|mysql|badger (default: STORAGE_DRIVER or badger)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", time.Minute, "operation timeout")
	root.PersistentFlags().BoolVar(&c.plain, "plain", false, "print city details as raw markdown")

	root.AddCommand(c.searchCmd(), c.showCmd(), c.askCmd())
	root.AddCommand(c.favCmd())
	root.AddCommand(c.commentsCmd(), c.commentCmd())
	return c, root
}

// close releases the storage opened by PersistentPreRunE, if any.
func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// execute runs one command line. Storage is closed here rather than in a
// post-run hook because cobra skips those when RunE fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c, root := newCLI()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}

func (c *cli) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
