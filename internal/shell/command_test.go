package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExactKinds(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"hello", HelloCmd{}},
		{"hi", HelloCmd{}},
		{"help", HelpCmd{}},
		{"exit", ExitCmd{}},
		{"quit", ExitCmd{}},
		{"use alice", UseCmd{Name: "alice"}},
		{"balance", BalanceCmd{}},
		{"balance alice", BalanceCmd{Name: "alice"}},
		{"history", HistoryCmd{}},
		{"history 5", HistoryCmd{Limit: 5}},
		{"price SOL", PriceCmd{Symbol: "SOL"}},
		{"connect alice", ConnectCmd{Name: "alice"}},
		{"connect alice 5KQ", ConnectCmd{Name: "alice", Secret: "5KQ"}},
		{"send 1.5 to Dest", SendCmd{Amount: "1.5", Recipient: "Dest"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSendToken(t *testing.T) {
	got, err := Parse("send 10 to Dest mint Mint1 decimals 6")
	require.NoError(t, err)
	cmd, ok := got.(SendCmd)
	require.True(t, ok)
	assert.Equal(t, "10", cmd.Amount)
	assert.Equal(t, "Dest", cmd.Recipient)
	assert.Equal(t, "Mint1", cmd.Mint)
	require.NotNil(t, cmd.Decimals)
	assert.Equal(t, uint8(6), *cmd.Decimals)
}

func TestParseBalanceToken(t *testing.T) {
	got, err := Parse("balance alice mint Mint1 decimals 6")
	require.NoError(t, err)
	cmd, ok := got.(BalanceCmd)
	require.True(t, ok)
	assert.Equal(t, "alice", cmd.Name)
	assert.Equal(t, "Mint1", cmd.Mint)
	require.NotNil(t, cmd.Decimals)
	assert.Equal(t, uint8(6), *cmd.Decimals)

	got, err = Parse("balance mint Mint1")
	require.NoError(t, err)
	cmd, ok = got.(BalanceCmd)
	require.True(t, ok)
	assert.Empty(t, cmd.Name)
	assert.Equal(t, "Mint1", cmd.Mint)
	assert.Nil(t, cmd.Decimals)
}

// A prompt merely containing a command word must not trigger that command.
func TestParseSubstringDoesNotDispatch(t *testing.T) {
	for _, in := range []string{
		"can you help me understand lamports",
		"I want to exit my position",
		"what does send solana mean",
		"say hello to my wallet",
	} {
		got, err := Parse(in)
		require.NoError(t, err)
		cmd, ok := got.(AskCmd)
		require.True(t, ok, "input %q parsed as %T", in, got)
		assert.Equal(t, in, cmd.Prompt)
	}
}

func TestParseMalformedKnownCommands(t *testing.T) {
	for _, in := range []string{
		"use",
		"use a b",
		"connect",
		"price",
		"history x",
		"send 1.5 Dest",
		"send 1.5 to Dest decimals 6",
		"send 1.5 to Dest mint",
		"balance alice decimals 6",
		"balance alice mint",
	} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse("   ")
	require.NoError(t, err)
	assert.Equal(t, AskCmd{Prompt: ""}, got)
}
