package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/clock"
	"github.com/keboola/osiris/pkg/compiler"
	"github.com/keboola/osiris/pkg/fsx"
)

// newCompileCommand returns "osiris compile <oml> [--profile P]
// [--params k=v]…" (§6: "emits build artifact, updates latest
// pointer, prints hash and paths").
func newCompileCommand() *cobra.Command {
	var profile string
	var params []string

	cmd := &cobra.Command{
		Use:   "compile <oml>",
		Short: "Compile an OML pipeline document into a content-addressed manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			omlBytes, err := os.ReadFile(args[0])
			if err != nil {
				return &CLIError{Code: ExitCompile, Err: err}
			}

			resolvedProfile, err := app.Contract.ResolveProfile(profile)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			paramMap, err := parseParams(params)
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			opts := compiler.Options{
				Params:           paramMap,
				Profile:          resolvedProfile,
				GeneratedAt:      clock.FormatRFC3339Milli(clock.NowMS()),
				ManifestShortLen: app.Contract.ManifestShortLen(),
			}

			result, err := compiler.Compile(omlBytes, opts, app.Registry)
			if err != nil {
				return &CLIError{Code: classifyCompileError(err), Err: err}
			}

			slug, err := fsx.Slugify(result.Pipeline.Name)
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			paths, err := compiler.Write(app.Contract, slug, resolvedProfile, result)
			if err != nil {
				return &CLIError{Code: ExitCompile, Err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "manifest_hash: %s\n", result.Manifest.Hash)
			fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", paths.Manifest)
			fmt.Fprintf(cmd.OutOrStdout(), "plan: %s\n", paths.Plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "profile label (default: filesystem.profiles.default)")
	cmd.Flags().StringArrayVar(&params, "params", nil, "param substitution as key=value, repeatable")
	return cmd
}

// classifyCompileError maps a compiler.CompileError's wrapped sentinel
// to an exit code: schema/semantic problems are ExitValidation,
// everything else (write failure, internal) is ExitCompile.
func classifyCompileError(err error) int {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		switch {
		case errors.Is(ce.Err, compiler.ErrOmlInvalid),
			errors.Is(ce.Err, compiler.ErrComponentNotFound),
			errors.Is(ce.Err, compiler.ErrStepConfigInvalid),
			errors.Is(ce.Err, compiler.ErrCycleDetected):
			return ExitValidation
		}
	}
	return ExitCompile
}

// parseParams splits each "key=value" argument into the map
// compiler.Options.Params expects.
func parseParams(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --params entry %q, expected key=value", arg)
		}
		out[k] = v
	}
	return out, nil
}
