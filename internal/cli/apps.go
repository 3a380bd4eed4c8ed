package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/app"
	"github.com/spf13/cobra"
)

func streakCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "streak", Short: "Daily check-in streak"}

	cmd.AddCommand(&cobra.Command{
		Use:   "checkin",
		Short: "Count today and award any reached milestone",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			res, err := a.Streak.CheckIn(ctx, time.Now())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch {
			case !res.Advanced:
				fmt.Fprintf(w, "already checked in on %s, streak %d\n", res.Date, res.Count)
			case res.Reset:
				fmt.Fprintf(w, "streak restarted at %d (was %d)\n", res.Count, res.Previous)
			default:
				fmt.Fprintf(w, "streak %d\n", res.Count)
			}

			if acct := account(ctx); acct != "" && res.Advanced {
				ids, err := a.Badges.EnsureMilestones(ctx, acct, res.Count)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintf(w, "new badge %s\n", id)
				}
			}
			return nil
		}),
	})
	return cmd
}

func walkCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "walk", Short: "Roamio walks"}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a walk",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			w, err := a.Roamio.StartWalk(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "walk %s started\n", w.WalkID)
			return nil
		}),
	}, &cobra.Command{
		Use:   "update <meters> <steps>",
		Short: "Record cumulative distance and steps",
		Args:  cobra.ExactArgs(2),
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			meters, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("meters: %w", err)
			}
			steps, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("steps: %w", err)
			}
			w, err := a.Roamio.UpdateWalk(ctx, meters, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "walk %s %.0fm %d steps\n", w.WalkID, w.DistanceM, w.Steps)
			return nil
		}),
	}, &cobra.Command{
		Use:   "finish",
		Short: "Finish the walk and credit its points",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			s, err := a.Roamio.FinishWalk(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "walk %s finished: %.0fm, +%d points\n", s.ID, s.DistanceM, s.Points)
			return nil
		}),
	})
	return cmd
}

func taskCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "SnapTask photo verification"}

	cmd.AddCommand(&cobra.Command{
		Use:   "begin <title> [photo]",
		Short: "Claim the verification slot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			photo := ""
			if len(args) > 1 {
				photo = args[1]
			}
			p, err := a.SnapTask.BeginVerify(ctx, args[0], photo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verifying %q (%s)\n", p.Title, p.TaskID)
			return nil
		}),
	}, &cobra.Command{
		Use:   "complete",
		Short: "Finish the pending verification",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.SnapTask.CompleteVerify(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %q, +%d points\n", t.Title, t.Points)
			return nil
		}),
	}, &cobra.Command{
		Use:   "cancel",
		Short: "Drop the pending verification",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			if err := a.SnapTask.CancelVerify(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}),
	})
	return cmd
}

func activityCommand(r *runner) *cobra.Command {
	var category string
	done := &cobra.Command{
		Use:   "done <name...>",
		Short: "Record a finished activity",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			act, err := a.Activity.Complete(ctx, strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s done, +%d points\n", act.Name, act.Points)
			return nil
		}),
	}
	done.Flags().StringVar(&category, "category", "", "activity category")

	cmd := &cobra.Command{Use: "activity", Short: "ActivityJar"}
	cmd.AddCommand(done)
	return cmd
}
