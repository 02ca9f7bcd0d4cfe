package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amberlab/amber/internal/store"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	DBPath string
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Persist and retrieve encoded trees",
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "amber.db", "snapshot database path")

	cmd.AddCommand(newSnapshotSaveCommand(opts))
	cmd.AddCommand(newSnapshotLoadCommand(opts))
	cmd.AddCommand(newSnapshotListCommand(opts))

	return cmd
}

func newSnapshotSaveCommand(opts *SnapshotOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "save <tree-file>",
		Short: "Save a tree file into the snapshot store",
		Long: `Save a portable tree into the snapshot store.

Saves are idempotent by content: re-saving an identical tree returns
the existing snapshot id.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			t, err := readTreeFile(args[0])
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "read tree", err)
			}

			s, err := store.Open(opts.DBPath)
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "open store", err)
			}
			defer s.Close()

			snap, err := s.Save(cmd.Context(), label, t)
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "save snapshot", err)
			}

			if opts.Format == "json" {
				return formatter.Success(map[string]any{
					"id":     snap.ID,
					"label":  snap.Label,
					"digest": snap.Digest,
				})
			}
			return formatter.Success(snap.ID)
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "snapshot label")

	return cmd
}

func newSnapshotLoadCommand(opts *SnapshotOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "load <snapshot-id>",
		Short:         "Print the tree stored under a snapshot id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			s, err := store.Open(opts.DBPath)
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "open store", err)
			}
			defer s.Close()

			t, err := s.LoadTree(cmd.Context(), args[0])
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "load snapshot", err)
			}

			body, err := marshalTree(t, true)
			if err != nil {
				return WrapExitError(ExitFailure, "marshal tree", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}

	return cmd
}

func newSnapshotListCommand(opts *SnapshotOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored snapshots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			s, err := store.Open(opts.DBPath)
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "open store", err)
			}
			defer s.Close()

			snaps, err := s.List(cmd.Context(), label)
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "list snapshots", err)
			}

			if opts.Format == "json" {
				return formatter.Success(snaps)
			}
			for _, snap := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %s  %s\n", snap.ID, snap.Label, snap.Digest[:12], snap.CreatedAt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "filter by label")

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
