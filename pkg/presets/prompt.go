package presets

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidSelection is returned when the operator picks a selector that isn't in the catalog
var ErrInvalidSelection = eris.New("invalid selection")

// Prompt asks the operator for a preset exactly once per call
type Prompt struct {
	Catalog *Catalog
	In      io.Reader
	Out     io.Writer
}

// NewPrompt creates a prompt reading from in and writing the menu to out
func NewPrompt(catalog *Catalog, in io.Reader, out io.Writer) *Prompt {
	return &Prompt{Catalog: catalog, In: in, Out: out}
}

// Menu renders the selection menu
func (p *Prompt) Menu() string {
	entries := p.Catalog.Entries()

	selWidth := 0
	genWidth := len("Generator")
	for _, entry := range entries {
		if len(entry.Selector) > selWidth {
			selWidth = len(entry.Selector)
		}
		if len(entry.Generator) > genWidth {
			genWidth = len(entry.Generator)
		}
	}

	var buf strings.Builder
	buf.WriteString("Select configuration:\n")

	lineFmt := fmt.Sprintf("%%%ds %%-%ds    %%s\n", selWidth+1, genWidth)
	buf.WriteString(fmt.Sprintf(lineFmt, "", "Generator", "Compiler"))
	for _, entry := range entries {
		buf.WriteString(fmt.Sprintf(lineFmt, entry.Selector+")", entry.Generator, entry.Compiler))
	}

	return buf.String()
}

// PromptForPreset prints the menu, reads one line and resolves it. There is no retry; an unknown
// selector (or no input at all) returns ErrInvalidSelection.
func (p *Prompt) PromptForPreset() (Entry, error) {
	_, err := io.WriteString(p.Out, p.Menu())
	if err != nil {
		return Entry{}, eris.Wrap(err, "failed to print menu")
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return Entry{}, eris.Wrap(err, "failed to read selection")
	}

	selection := strings.TrimSpace(line)
	entry, ok := p.Catalog.Resolve(selection)
	if !ok {
		return Entry{}, eris.Wrapf(ErrInvalidSelection, "%q is not one of the listed options", selection)
	}

	return entry, nil
}
