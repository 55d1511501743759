package shell

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Transcript appends You/Assistant exchanges to a session log file. The core
// never reads this file; it exists for the operator.
type Transcript struct {
	path string
}

// NewTranscript creates a transcript writer for path.
func NewTranscript(path string) *Transcript {
	return &Transcript{path: path}
}

// Append writes one exchange. Failures are returned, not fatal.
func (t *Transcript) Append(userInput, response string) error {
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "You: %s\n", userInput)
	fmt.Fprintf(&b, "Assistant: %s\n", response)
	b.WriteString(strings.Repeat("-", 50) + "\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// ReadAll returns the transcript contents; a missing file reads as empty.
func (t *Transcript) ReadAll() string {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return string(data)
}
