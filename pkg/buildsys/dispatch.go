package buildsys

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/apetor56/vulkan-engine/pkg"
)

// ParseVerb maps a command line verb to a Verb. Matching ignores case and accepts the
// older "--build" spelling as well as -h.
func ParseVerb(arg string) (Verb, error) {
	name := strings.ToLower(strings.TrimSpace(arg))
	switch name {
	case "-h", "--help":
		return VerbHelp, nil
	}

	name = strings.TrimPrefix(name, "--")
	for verb, verbName := range verbNames {
		if verb != VerbNone && verbName == name {
			return verb, nil
		}
	}

	return VerbNone, eris.Wrapf(ErrUnknownVerb, "%q", arg)
}

// NewRequest builds the request for the given process arguments (without the program name)
func NewRequest(args []string) (Request, error) {
	if len(args) == 0 {
		return Request{Verb: VerbNone}, nil
	}

	verb, err := ParseVerb(args[0])
	if err != nil {
		return Request{}, err
	}

	return Request{Verb: verb, Args: args[1:]}, nil
}

// Dispatch runs the operation for req. Without a verb the project is configured and then
// built. If configure is refused because the project is already configured, Dispatch stops
// there and succeeds; if it fails, the build doesn't run.
func (m *Manager) Dispatch(ctx context.Context, req Request) error {
	log(ctx).Debug().Str("verb", req.Verb.String()).Strs("args", req.Args).Msg("dispatch")

	switch req.Verb {
	case VerbNone:
		err := m.Configure(ctx, nil)
		if eris.Is(err, ErrAlreadyConfigured) {
			// the refusal was printed; nothing else to do
			return nil
		}
		if err != nil {
			return err
		}
		return m.Build(ctx, nil)
	case VerbHelp:
		WriteUsage(pkg.Output, m.prog)
		return nil
	case VerbConfigure:
		return m.Configure(ctx, req.Args)
	case VerbBuild:
		return m.Build(ctx, req.Args)
	case VerbClean:
		return m.Clean(ctx)
	case VerbRebuild:
		return m.Rebuild(ctx, req.Args)
	}

	return eris.Wrapf(ErrUnknownVerb, "verb #%d", int(req.Verb))
}

// WriteUsage prints the verb overview
func WriteUsage(w io.Writer, prog string) {
	fmt.Fprintf(w, `
Usage: %[1]s [verb]

Running %[1]s without a verb for the first time configures and builds the project.

Available verbs:
  help       show this message
  configure  configure the project with a CMake preset (see CMakePresets.json)
  build      build the project; configures it first if necessary
  clean      remove the entire build directory
  rebuild    rebuild only the project's own targets, keeping CMake's configuration
  lint       run clang-tidy over the sources
  status     show the selected configuration

Arguments after "--" are passed to CMake, e.g. %[1]s build -- --target app
`, prog)
}
