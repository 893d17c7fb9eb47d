package main

import (
	"errors"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"devcleaner/internal/app"
	"devcleaner/internal/config"
	"devcleaner/internal/denylist"
	"devcleaner/internal/exitcodes"
	"devcleaner/internal/prompt"
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "devcleaner",
		Short: "Remove build and dependency directories listed in a denylist",
		Long: `devcleaner walks a directory tree and removes every directory whose name
is listed in the denylist file (one name per line), for example node_modules,
target or __pycache__. Hidden entries and symbolic links are skipped.
Directories are moved to the trash when possible and deleted permanently
otherwise. Missing paths are asked for interactively.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Bind(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(v)
			if err != nil {
				return err
			}

			p := prompt.New(in, out)
			if opts.DenylistPath == "" {
				if opts.DenylistPath, err = p.Ask("Path to the denylist file"); err != nil {
					return usageError{err}
				}
			}
			// a bad denylist fails before the root is asked for
			fsys := afero.NewOsFs()
			deny, err := denylist.Load(fsys, opts.DenylistPath)
			if err != nil {
				return err
			}
			if opts.Root == "" {
				if opts.Root, err = p.Ask("Directory to clean"); err != nil {
					return usageError{err}
				}
			}

			_, err = app.Run(cmd.Context(), opts, app.Env{Fs: fsys, Stdout: out, Stderr: errOut, Denylist: deny})
			return err
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func exitCode(err error) int {
	var readErr *denylist.ReadError
	var usage usageError
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.As(err, &usage):
		return exitcodes.Usage
	case errors.As(err, &readErr),
		errors.Is(err, config.ErrNotDirectory),
		errors.Is(err, config.ErrInvalidWorkers),
		errors.Is(err, config.ErrMissingConfig),
		errors.Is(err, config.ErrMissingRoot):
		return exitcodes.InvalidConfig
	default:
		return exitcodes.RuntimeError
	}
}
