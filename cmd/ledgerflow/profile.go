package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubledger/ledgerflow/internal/profile"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage transformation profiles",
	}

	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileValidateCmd())
	cmd.AddCommand(profileSaveCmd())
	cmd.AddCommand(profileConfirmCmd())

	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a user's stored profile document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			p, err := store.GetProfile(ctx, args[0])
			if err != nil {
				return err
			}

			document, err := profile.Serialize(p)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, string(document))
			return nil
		},
	}
}

func profileValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile.json>",
		Short: "Check that a profile document deserializes cleanly",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) //nolint:gosec // user-supplied path is the point
			if err != nil {
				return fmt.Errorf("failed to read profile file: %w", err)
			}

			p, err := profile.Deserialize(data)
			if err != nil {
				return err
			}

			slog.Info("Profile is valid",
				"user", p.UserID,
				"version", p.ProfileVersion,
				"confirmed", p.Metadata.UserConfirmed,
				"mappings", len(p.CategorySystem.Mapping))
			return nil
		},
	}
}

func profileSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <profile.json>",
		Short: "Store a profile document, replacing any previous one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0]) //nolint:gosec // user-supplied path is the point
			if err != nil {
				return fmt.Errorf("failed to read profile file: %w", err)
			}

			p, err := profile.Deserialize(data)
			if err != nil {
				return err
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveProfile(ctx, p); err != nil {
				return err
			}

			slog.Info("Profile saved", "user", p.UserID, "confirmed", p.Metadata.UserConfirmed)
			return nil
		},
	}
}

func profileConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <user-id>",
		Short: "Mark a stored profile as user-confirmed",
		Long: `Mark a stored profile as confirmed by the user.

A profile may not be used for unattended import until it has been
confirmed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ConfirmProfile(ctx, args[0]); err != nil {
				return err
			}

			slog.Info("Profile confirmed", "user", args[0])
			return nil
		},
	}
}
