package cli

import (
	"github.com/spf13/cobra"

	"github.com/amberlab/amber/internal/tree"
)

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest <tree-file>",
		Short: "Print the content digest of a portable tree",
		Long: `Print the content-addressed digest of a tree file.

The digest is stable across processes for identical encoded content,
including sharing topology, and matches the digest recorded by
'snapshot save'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			t, err := readTreeFile(args[0])
			if err != nil {
				formatter.Error("COMMAND_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "read tree", err)
			}

			digest, err := tree.Digest(t)
			if err != nil {
				return WrapExitError(ExitFailure, "digest", err)
			}
			return formatter.Success(digest)
		},
	}

	return cmd
}
