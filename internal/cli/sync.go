package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/app"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/healthcheck"
	"github.com/MyelinBots/wellness-sync/internal/services/reconciler"
	"github.com/MyelinBots/wellness-sync/internal/services/timer"
	"github.com/spf13/cobra"
)

func serveCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the startup sync, then recheck periodically and serve /healthz",
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			driver := reconciler.NewDriver(a.Reconciler, account(ctx), a.Log)
			healthcheck.StartHealthcheck(ctx, a.Config.AppConfig, driver, a.Log)

			rep, err := a.Startup(ctx, driver, account(ctx), time.Now())
			if err != nil {
				return err
			}
			a.Log.Info("startup finished",
				"streak", rep.Streak.Count, "new_badges", rep.NewBadges, "sync", rep.Sync.Result.String())

			// a day rollover while running is picked up on the next tick
			t := timer.NewRepeatedTimer(a.Config.SyncConfig.RecheckInterval, func() {
				driver.Trigger(ctx, false)
			})
			<-ctx.Done()
			t.Stop()
			driver.Wait()
			a.Log.Info("shutting down")
			return nil
		}),
	}
}

func syncCommand(r *runner) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote store if today has not been synced",
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			out := reconciler.NewDriver(a.Reconciler, account(ctx), a.Log).Run(ctx, force)
			printOutcome(cmd, out)
			switch out.Result {
			case reconciler.FailedLocalRead, reconciler.FailedRemoteWrite:
				if out.Err == nil {
					return fmt.Errorf("sync %s", out.Result)
				}
				return fmt.Errorf("sync %s: %w", out.Result, out.Err)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "sync even if already synced today")
	return cmd
}

func printOutcome(cmd *cobra.Command, out reconciler.Outcome) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "sync: %s", out.Result)
	if out.Advanced() {
		fmt.Fprintf(w, " score=%d friends=%d badges=%d", out.Aggregate, out.Friends, out.Badges)
	}
	if out.Err != nil {
		fmt.Fprintf(w, " error=%q", out.Err.Error())
	}
	fmt.Fprintln(w)
}

func scoreCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "score", Short: "Local micro-app scores"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print each micro-app score and the aggregate",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			for _, ma := range score.Apps {
				n, err := a.Scores.GetMicroAppScore(ctx, ma)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", ma, n)
			}
			total, err := a.Aggregator.Aggregate(ctx, account(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", "total", total)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <app> <delta>",
		Short: "Adjust a micro-app score (never below zero)",
		Args:  cobra.ExactArgs(2),
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			ma, err := score.ParseApp(args[0])
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta: %w", err)
			}
			if err := a.Scores.AddMicroAppScore(ctx, ma, delta); err != nil {
				return err
			}
			n, err := a.Scores.GetMicroAppScore(ctx, ma)
			if err != nil {
				return err
			}
			if acct := account(ctx); acct != "" {
				if _, err := a.Aggregator.AggregateAndPublish(ctx, acct); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", ma, n)
			return nil
		}),
	})
	return cmd
}
