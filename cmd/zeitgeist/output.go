package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	labelColor = color.New(color.FgCyan)
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

// printField writes one "label: value" line.
func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelColor.Sprint(label+":"), value)
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okColor.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnColor.Sprintf(format, args...))
}

// printJSON writes v indented, for commands whose result is a whole market.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
