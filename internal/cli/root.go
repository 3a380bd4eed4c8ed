// Package cli is the wellness-sync command line.
package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/MyelinBots/wellness-sync/config"
	"github.com/MyelinBots/wellness-sync/internal/app"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/spf13/cobra"
)

var errNoAccount = errors.New("no account: pass --account or set WS_ACCOUNT")

type runner struct {
	configFile string
	account    string
}

type handler func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

func NewRootCommand() *cobra.Command {
	r := &runner{}

	root := &cobra.Command{
		Use:           "wellness-sync",
		Short:         "Score, streak and friend sync for the wellness app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&r.configFile, "config", config.DefaultPath, "config file")
	root.PersistentFlags().StringVar(&r.account, "account", os.Getenv("WS_ACCOUNT"), "signed-in account uid")

	root.AddCommand(
		serveCommand(r),
		syncCommand(r),
		scoreCommand(r),
		friendsCommand(r),
		profileCommand(r),
		streakCommand(r),
		badgesCommand(r),
		walkCommand(r),
		taskCommand(r),
		activityCommand(r),
	)
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

// open loads config and builds the app with the account in ctx.
func (r *runner) open(ctx context.Context) (context.Context, *app.App, error) {
	cfg, err := config.LoadConfig(r.configFile)
	if err != nil {
		return ctx, nil, err
	}
	a, err := app.New(ctx, cfg, logging.New(cfg.LogConfig))
	if err != nil {
		return ctx, nil, err
	}
	return context_manager.SetAccountContext(ctx, r.account), a, nil
}

func (r *runner) with(fn handler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, a, err := r.open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, cmd, args)
	}
}

// withAccount is with for commands that act on the signed-in account.
func (r *runner) withAccount(fn handler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(r.account) == "" {
			return errNoAccount
		}
		return r.with(fn)(cmd, args)
	}
}

func account(ctx context.Context) string {
	return context_manager.GetAccountFromContext(ctx)
}
