package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amberlab/amber/internal/codec"
	"github.com/amberlab/amber/internal/tree"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Output string
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <tree-file>",
		Short: "Rebuild a document from a portable tree",
		Long: `Decode a portable tree file back into a plain document.

Trees containing object or callable records need a type registry and
cannot be decoded by the CLI; it handles document graphs (maps, lists,
primitives, shared containers).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runDecode(opts *DecodeOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	t, err := readTreeFile(path)
	if err != nil {
		formatter.Error("COMMAND_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "read tree", err)
	}

	doc, err := codec.Decode(t)
	if err != nil {
		return codecFailure(formatter, "decode", err)
	}

	body, err := RenderDocument(doc)
	if err != nil {
		return WrapExitError(ExitFailure, "render document", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(body, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func readTreeFile(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t tree.Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tree %s: %w", path, err)
	}
	return &t, nil
}
