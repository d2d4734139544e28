package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/symtrace/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands print their own errors. Cobra's argument and flag errors
	// are not ExitErrors and have not been shown yet.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
