// Package prompt assembles the system and user prompts sent to the
// generation backend for each role.
package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/ayerma/assistant/internal/logging"
)

// StrictReminder closes every system prompt.
const StrictReminder = "IMPORTANT: Follow the instructions exactly. Return ONLY the strict JSON object."

// LoadSystem reads the role instructions and, when requirementsPath is set,
// appends the technical requirements under their own heading. A missing
// requirements file is logged and skipped; missing instructions are an error.
func LoadSystem(instructionsPath, requirementsPath string, logger *slog.Logger) (string, error) {
	log := logging.OrDiscard(logger)

	instructions, err := os.ReadFile(instructionsPath)
	if err != nil {
		return "", fmt.Errorf("read role instructions: %w", err)
	}
	log.Debug("loaded role instructions", "path", instructionsPath, "chars", len(instructions))

	var b strings.Builder
	b.Write(instructions)

	if requirementsPath != "" {
		req, err := os.ReadFile(requirementsPath)
		switch {
		case err == nil:
			b.WriteString("\n\n---\n\n## Technical Requirements\n\n")
			b.Write(req)
			log.Debug("loaded technical requirements", "path", requirementsPath, "chars", len(req))
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("technical requirements file not found", "path", requirementsPath)
		default:
			return "", fmt.Errorf("read technical requirements: %w", err)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(StrictReminder)
	return b.String(), nil
}

// Combine joins the system and user prompts the way they are written to the
// prompt file handed to CLI backends.
func Combine(system, user string) string {
	return system + "\n\n" + user
}
