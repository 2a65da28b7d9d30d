// Package cli implements the iris command.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funvibe/iris/internal/config"
)

const usage = `Usage: iris <command> [--debug] [arguments]

Commands:
  run <file> [args...]   check and run main; args are returned by sys.args
  check <file>           check a program and print the type and effect of each definition
  fmt [-w] <file>        print the program in canonical form; -w rewrites the file
  version                print the version
  help                   print this help

iris.yaml is looked up from the directory of <file> upwards.
`

// Run is the entry point of cmd/iris.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(2)
		}
	}()
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}

// Main runs one iris command and returns the process exit code: 0 on
// success, 1 when the program fails to check or run, 2 on usage errors.
func Main(args []string, stdout, stderr io.Writer) int {
	debugMode := false
	var rest []string
	for _, arg := range args {
		if arg == "-debug" || arg == "--debug" {
			debugMode = true
			continue
		}
		rest = append(rest, arg)
	}
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	env := &environment{stdout: stdout, stderr: stderr, debug: debugMode}
	cmd, params := rest[0], rest[1:]
	switch cmd {
	case "run":
		if len(params) == 0 {
			return env.usageError("run needs a file")
		}
		return env.handleRun(params[0], params[1:])
	case "check":
		if len(params) != 1 {
			return env.usageError("check needs exactly one file")
		}
		return env.handleCheck(params[0])
	case "fmt":
		write := false
		if len(params) > 0 && params[0] == "-w" {
			write = true
			params = params[1:]
		}
		if len(params) != 1 {
			return env.usageError("fmt needs exactly one file")
		}
		return env.handleFmt(params[0], write)
	case "version", "-v", "-version", "--version":
		fmt.Fprintln(stdout, config.Version)
		return 0
	case "help", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	}

	// iris <file> is short for iris run <file>
	if config.HasSourceExt(cmd) {
		return env.handleRun(cmd, params)
	}
	return env.usageError("unknown command " + strings.TrimSpace(cmd))
}

func (env *environment) usageError(msg string) int {
	fmt.Fprintf(env.stderr, "iris: %s\n\n%s", msg, usage)
	return 2
}
