package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/apetor56/vulkan-engine/pkg"
)

// ConsoleWriter renders zerolog's JSON events as colored lines for the operator
type ConsoleWriter struct {
	out    io.Writer
	buffer strings.Builder
	lock   sync.Mutex
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

func debugEnabled() bool {
	return os.Getenv("PROJMGR_DEBUG") != ""
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal":
		fallthrough
	case "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug":
		fallthrough
	case "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	task, ok := evt["task"].(string)
	if ok {
		w.buffer.WriteString(task + ": ")
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	if evt["command"] == true {
		w.buffer.WriteString("$ ")
	}

	msg, _ := evt["message"].(string)

	path, ok := evt["path"].(string)
	if ok {
		// simplify the path
		relPath, err := filepath.Rel(".", path)
		if err == nil && !strings.HasPrefix(relPath, "..") {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}

	w.buffer.WriteString(msg)

	errorDetails, ok := evt["error"].(string)
	if ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if debugEnabled() {
		w.buffer.WriteString("\n")
		for name, value := range evt {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, value))
		}
	}

	w.buffer.WriteString("[reset]\n")
	_, err = io.WriteString(w.out, pkg.Colorize(w.buffer.String()))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func setErrorFormat(withTrace bool) {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, withTrace || debugEnabled())
	}
}

func init() {
	setErrorFormat(false)
}
