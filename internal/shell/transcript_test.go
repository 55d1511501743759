package shell

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAppendAndRead(t *testing.T) {
	tr := NewTranscript(filepath.Join(t.TempDir(), "log.txt"))

	assert.Empty(t, tr.ReadAll())

	require.NoError(t, tr.Append("what is solana", "a blockchain"))
	require.NoError(t, tr.Append("thanks", "anytime"))

	got := tr.ReadAll()
	assert.Contains(t, got, "You: what is solana")
	assert.Contains(t, got, "Assistant: a blockchain")
	assert.Contains(t, got, "You: thanks")
}
