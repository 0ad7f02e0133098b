package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var (
	exitFn           = os.Exit
	stdin  io.Reader = os.Stdin
	getenv           = os.Getenv
)

// usageError marks bad invocations; they exit 2 like flag parse errors.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitError carries a non-zero exit without an extra message; the command
// already printed what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	app := &app{stdout: stdout, stderr: stderr, stdin: stdin, getenv: getenv}
	root := newRootCmd(app)
	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	app.close()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(stderr, err.Error())
	var usage *usageError
	if errors.As(err, &usage) || strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gate",
		Short:         "Review loan proposals at the Gate",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return usagef("missing command")
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "path to gate.yaml (default $GATE_CONFIG)")
	flags.StringVar(&a.flags.apiBaseURL, "api", "", "Gate API base URL (overrides config and $GATE_API_BASE_URL)")
	flags.StringVar(&a.flags.sessionPath, "session", "", "path to the session file")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newHealthCmd(a),
		newDebugCmd(a),
		newRoleCmd(a),
		newWhoamiCmd(a),
		newInboxCmd(a),
		newOverviewCmd(a),
		newShowCmd(a),
		newDecideCmd(a),
		newReasonsCmd(a),
	)
	return root
}

// argsUsage turns cobra argument validation failures into usage errors.
func argsUsage(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			_ = cmd.Usage()
			return &usageError{err: err}
		}
		return nil
	}
}
