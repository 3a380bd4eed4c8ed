package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/app"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/friend"
	profilerepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/profile"
	"github.com/spf13/cobra"
)

func friendsCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "friends", Short: "Friend requests and the friend list"}

	cmd.AddCommand(&cobra.Command{
		Use:   "request <uid> [name...]",
		Short: "Send or refresh a friend request",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			if err := a.Friends.Request(ctx, account(ctx), args[0], name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested %s\n", args[0])
			return nil
		}),
	}, &cobra.Command{
		Use:   "accept <uid>",
		Short: "Accept a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			if err := a.Friends.Accept(ctx, account(ctx), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted %s\n", args[0])
			return nil
		}),
	}, &cobra.Command{
		Use:   "remove <uid>",
		Short: "Remove a friend or request",
		Args:  cobra.ExactArgs(1),
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			if err := a.Friends.Remove(ctx, account(ctx), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		}),
	}, &cobra.Command{
		Use:   "list",
		Short: "List friends from the remote store with their scores",
		Args:  cobra.NoArgs,
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			list, err := a.Friends.ListFriends(ctx, account(ctx))
			if err != nil {
				return err
			}
			printFriends(cmd.OutOrStdout(), list)
			return nil
		}),
	}, &cobra.Command{
		Use:   "cached",
		Short: "List friends from the offline cache",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			list, err := a.Friends.CachedFriends(ctx)
			if err != nil {
				return err
			}
			printFriends(cmd.OutOrStdout(), list)
			return nil
		}),
	})
	return cmd
}

func printFriends(w io.Writer, list []*friend.Friend) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no friends yet")
		return
	}
	for _, f := range list {
		fmt.Fprintf(w, "%-20s %-10s %6d  %s\n", f.FriendUID, f.Status, f.Score, f.DisplayName)
	}
}

func profileCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Account profile"}

	cmd.AddCommand(&cobra.Command{
		Use:   "signup <name> <email>",
		Short: "Create the account profile",
		Args:  cobra.ExactArgs(2),
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			p, err := a.Profile.SignUp(ctx, account(ctx), args[0], args[1])
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	}, &cobra.Command{
		Use:   "update <name> <email>",
		Short: "Change name and email",
		Args:  cobra.ExactArgs(2),
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			p, err := a.Profile.Update(ctx, account(ctx), args[0], args[1])
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	}, &cobra.Command{
		Use:   "show",
		Short: "Print the local profile",
		Args:  cobra.NoArgs,
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			p, err := a.Profile.Get(ctx, account(ctx))
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	}, &cobra.Command{
		Use:   "refresh",
		Short: "Copy name and email from the remote store",
		Args:  cobra.NoArgs,
		RunE: r.withAccount(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			p, err := a.Profile.Refresh(ctx, account(ctx))
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		}),
	})
	return cmd
}

func printProfile(w io.Writer, p *profilerepo.UserProfile) {
	fmt.Fprintf(w, "%s %s <%s> since %s\n", p.UID, p.Name, p.Email, p.CreatedAt.Format(time.DateOnly))
}

func badgesCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{Use: "badges", Short: "Milestone badges"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List badges from the offline cache",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			list, err := a.Badges.Cached(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no badges yet")
			}
			for _, b := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", b.BadgeID, b.AwardedAt.Format(time.DateOnly))
			}
			return nil
		}),
	})
	return cmd
}
