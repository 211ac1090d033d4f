// Command rebol runs an interactive read-eval-print loop, or evaluates a
// script file given on the command line, against the interp package's
// evaluator.
package main

import (
	"fmt"
	"os"

	"github.com/rhencke/rebol/interp"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	i := interp.New(interp.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Args:   args,
	})

	if len(args) > 1 {
		src, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := i.Eval(string(src)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	if _, err := i.REPL(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
