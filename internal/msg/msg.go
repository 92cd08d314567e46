package msg

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu  sync.Mutex
	out io.Writer = color.Output
)

// SetOutput redirects all messages, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func printLine(tag, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s: %s\n", tag, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	printLine(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	printLine(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	printLine(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	printLine(color.HiGreenString("info"), format, a...)
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if !w.didIndent {
			w.W.Write([]byte(w.Indent))
			w.didIndent = true
		}
		w.W.Write([]byte{c}) // FIXME-perf: buffer this
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	return len(p), nil
}
