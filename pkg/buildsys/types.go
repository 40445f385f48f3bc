package buildsys

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

var (
	// ErrAlreadyConfigured is returned by Configure when the build directory already exists
	ErrAlreadyConfigured = eris.New("project is already configured")
	// ErrUnknownVerb is returned for verbs outside of the recognized set
	ErrUnknownVerb = eris.New("unknown verb")
)

// State of the build directory
type State int

const (
	Unconfigured State = iota
	Configured
)

func (s State) String() string {
	if s == Configured {
		return "configured"
	}
	return "unconfigured"
}

// Verb identifies a single Manager operation
type Verb int

const (
	VerbNone Verb = iota
	VerbHelp
	VerbConfigure
	VerbBuild
	VerbClean
	VerbRebuild
)

var verbNames = map[Verb]string{
	VerbNone:      "",
	VerbHelp:      "help",
	VerbConfigure: "configure",
	VerbBuild:     "build",
	VerbClean:     "clean",
	VerbRebuild:   "rebuild",
}

func (v Verb) String() string {
	return verbNames[v]
}

// Request is built once per invocation from the operator's arguments
type Request struct {
	Verb Verb
	// Args are passed through to the external tool
	Args []string
}

// ToolError reports an external tool that exited with a non-zero status
type ToolError struct {
	Command []string
	Status  int
}

func (e *ToolError) Error() string {
	name := "command"
	if len(e.Command) > 0 {
		name = e.Command[0]
	}
	return fmt.Sprintf("%s exited with status %d", name, e.Status)
}

// Marker records the preset a build directory was configured with
type Marker struct {
	Selector     string    `yaml:"selector"`
	Generator    string    `yaml:"generator"`
	Compiler     string    `yaml:"compiler"`
	Preset       string    `yaml:"preset"`
	ConfiguredAt time.Time `yaml:"configured_at"`
}

// Status describes the build directory
type Status struct {
	State    State
	BuildDir string
	// Marker is nil if the directory is unconfigured or was configured without this tool
	Marker *Marker
}

func (s Status) String() string {
	if s.State != Configured {
		return "Unconfigured: " + s.BuildDir + " does not exist"
	}

	var buf strings.Builder
	buf.WriteString("Configured: " + s.BuildDir)
	if s.Marker != nil {
		buf.WriteString(fmt.Sprintf("\n  preset:    %s\n  generator: %s\n  compiler:  %s", s.Marker.Preset, s.Marker.Generator, s.Marker.Compiler))
		if !s.Marker.ConfiguredAt.IsZero() {
			buf.WriteString("\n  since:     " + s.Marker.ConfiguredAt.Format(time.RFC1123))
		}
	} else {
		buf.WriteString("\n  preset:    unknown")
	}
	return buf.String()
}
