// Package main provides the voxgate CLI entrypoint.
//
// Usage:
//
//	voxgate run [--config voxgate.yaml] [options]
//	voxgate version
//
// Exit codes:
//   - 0: clean shutdown
//   - 1: configuration error
//   - 2: transport failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lingomesh/voxgate/cli/cmd"
	"github.com/lingomesh/voxgate/types"
)

// commit is set at build time via -ldflags.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:    "voxgate",
		Usage:   "Gateway-side event router for the voice translation backend",
		Version: types.Version,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.VersionCommand(commit),
		},
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit
		// This branch is only reached if ExitErrHandler didn't exit
		os.Exit(2)
	}
}

// exitErrHandler handles errors from the CLI, respecting cli.ExitCoder.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
