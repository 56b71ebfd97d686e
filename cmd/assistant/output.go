package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ayerma/assistant/internal/ui"
)

// outputJSON outputs data as pretty-printed JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// outputJSONError outputs an error as JSON to stderr.
func outputJSONError(err error) {
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(map[string]string{"error": err.Error()})
}

// printer returns the human-readable printer for w.
func printer(w io.Writer) *ui.Printer {
	return ui.NewPrinter(w, w == os.Stdout && ui.ShouldUseColor())
}
