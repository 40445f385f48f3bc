package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes an external tool and waits for it to exit. A non-zero exit status is
// reported as *ToolError; other errors mean the tool could not be run at all.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ShellRunner runs commands through the mvdan.cc/sh interpreter. Arguments are passed
// literally and the child's output is streamed to Stdout and Stderr as it is produced.
type ShellRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env replaces the process environment if set
	Env []string
	// KillTimeout is the time between the interrupt and the kill signal once ctx is cancelled
	KillTimeout time.Duration
}

// NewShellRunner returns a runner attached to the process' stdio
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		KillTimeout: 2 * time.Second,
	}
}

// Run implements Runner
func (r *ShellRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return eris.New("empty command")
	}

	env := r.Env
	if env == nil {
		env = os.Environ()
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.ExecHandler(interp.DefaultExecHandler(r.KillTimeout)),
		interp.StdIO(r.Stdin, r.Stdout, r.Stderr),
	)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize runner")
	}

	err = runner.Run(ctx, commandExpr(argv))
	if err == nil {
		return nil
	}

	if status, ok := interp.IsExitStatus(err); ok {
		return &ToolError{Command: argv, Status: int(status)}
	}

	return eris.Wrapf(err, "Failed to run %s", argv[0])
}

// commandExpr builds a call expression whose words are single-quoted so that the interpreter
// performs no globbing or parameter expansion on them.
func commandExpr(argv []string) *syntax.CallExpr {
	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, len(argv))
	for idx, arg := range argv {
		node := new(syntax.SglQuoted)
		node.Value = arg

		cmd.Args[idx] = &syntax.Word{Parts: []syntax.WordPart{node}}
	}

	return cmd
}

// FormatCommand renders argv the way it would be typed into a POSIX shell
func FormatCommand(argv []string) string {
	parts := make([]string, len(argv))
	for idx, arg := range argv {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		parts[idx] = quoted
	}

	return strings.Join(parts, " ")
}
