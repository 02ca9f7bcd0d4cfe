package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amberlab/amber/internal/codec"
	"github.com/amberlab/amber/internal/tree"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Input  string // input document format: json|yaml|"" (by extension)
	Output string // output file path
	Pretty bool
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <document>",
		Short: "Encode a JSON/YAML document as a portable tree",
		Long: `Encode a JSON or YAML document into the portable tree format.

The document is read as a plain object graph (maps, lists, primitives)
and walked into a tree whose wire JSON is written to stdout or --output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "input document format (json|yaml, default by extension)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent the wire JSON")

	return cmd
}

func runEncode(opts *EncodeOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, err := LoadDocument(path, opts.Input)
	if err != nil {
		formatter.Error("COMMAND_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "load document", err)
	}

	t, err := codec.Encode(doc)
	if err != nil {
		return codecFailure(formatter, "encode", err)
	}

	body, err := marshalTree(t, opts.Pretty)
	if err != nil {
		return WrapExitError(ExitFailure, "marshal tree", err)
	}

	if opts.Verbose {
		digest, err := tree.Digest(t)
		if err != nil {
			return WrapExitError(ExitFailure, "digest", err)
		}
		formatter.VerboseLog("Encoded %s (digest %s)", path, digest)
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

func marshalTree(t *tree.Tree, pretty bool) ([]byte, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	if !pretty {
		return body, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// codecFailure reports a codec error with its structured code and the
// matching exit status.
func codecFailure(formatter *OutputFormatter, op string, err error) error {
	var ce *codec.Error
	if errors.As(err, &ce) {
		formatter.Error(string(ce.Code), ce.Error(), nil)
		return WrapExitError(ExitFailure, op, err)
	}
	formatter.Error("COMMAND_ERROR", err.Error(), nil)
	return WrapExitError(ExitCommandError, op, err)
}
