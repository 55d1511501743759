// Package shell is the interactive dispatcher: thin glue between the
// terminal and the orchestration core.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"spica/internal/assistant"
	"spica/internal/config"
	"spica/internal/model"
	"spica/internal/orchestrator"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

var (
	promptColor = color.New(color.FgHiWhite, color.Bold)
	replyColor  = color.New(color.FgCyan)
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	infoColor   = color.New(color.FgYellow)
)

// Shell runs the operator REPL.
type Shell struct {
	orch       *orchestrator.Orchestrator
	assist     *assistant.Service // nil when no backend is configured
	transcript *Transcript
	history    strings.Builder
	in         *bufio.Scanner
	out        io.Writer
	log        *zap.Logger
}

// New creates a Shell reading from in and writing to out.
func New(orch *orchestrator.Orchestrator, assist *assistant.Service, transcript *Transcript, in io.Reader, out io.Writer, log *zap.Logger) *Shell {
	s := &Shell{
		orch:       orch,
		assist:     assist,
		transcript: transcript,
		in:         bufio.NewScanner(in),
		out:        out,
		log:        log,
	}
	s.history.WriteString(transcript.ReadAll())
	return s
}

// Run processes commands until exit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	replyColor.Fprintln(s.out, "spica: Hello! Type 'help' for commands, 'exit' to quit.")

	for {
		promptColor.Fprint(s.out, "You: ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		line := s.in.Text()

		cmd, err := Parse(line)
		if err != nil {
			errColor.Fprintln(s.out, err.Error())
			continue
		}

		if _, ok := cmd.(ExitCmd); ok {
			replyColor.Fprintln(s.out, "spica: Goodbye!")
			return nil
		}
		s.dispatch(ctx, cmd, line)
	}
}

func (s *Shell) dispatch(ctx context.Context, cmd Command, line string) {
	switch c := cmd.(type) {
	case HelloCmd:
		replyColor.Fprintln(s.out, "spica: Hello! How can I assist you today?")
	case HelpCmd:
		s.printHelp()
	case ConnectCmd:
		s.runConnect(c)
	case UseCmd:
		if err := s.orch.SwitchCurrent(c.Name); err != nil {
			errColor.Fprintln(s.out, err.Error())
			return
		}
		okColor.Fprintf(s.out, "Current wallet is now %q\n", c.Name)
	case BalanceCmd:
		s.runBalance(ctx, c)
	case SendCmd:
		s.runSend(ctx, c)
	case HistoryCmd:
		s.runHistory(ctx, c)
	case PriceCmd:
		rate, err := s.orch.Price(ctx, c.Symbol)
		if err != nil {
			errColor.Fprintln(s.out, err.Error())
			return
		}
		okColor.Fprintf(s.out, "%s: $%s\n", strings.ToUpper(c.Symbol), rate)
	case AskCmd:
		s.runAsk(ctx, c, line)
	}
}

func (s *Shell) runConnect(c ConnectCmd) {
	secret := c.Secret
	if secret == "" {
		raw, err := config.PromptSecret(fmt.Sprintf("Secret for wallet %q", c.Name))
		if err != nil {
			errColor.Fprintln(s.out, err.Error())
			return
		}
		secret = string(raw)
		clear(raw)
	}

	resp, err := s.orch.Connect(c.Name, secret)
	if err != nil {
		errColor.Fprintln(s.out, err.Error())
		return
	}
	okColor.Fprintf(s.out, "Wallet %q connected: %s\n", resp.Name, resp.Address)
	if resp.QR != "" {
		fmt.Fprintln(s.out, resp.QR)
	}
}

func (s *Shell) runBalance(ctx context.Context, c BalanceCmd) {
	name := c.Name
	if name == "" {
		current, ok := s.orch.CurrentWallet()
		if !ok {
			errColor.Fprintln(s.out, "no wallet selected: connect one and run 'use <name>'")
			return
		}
		name = current
	}

	if c.Mint != "" {
		amount, err := s.orch.TokenBalanceFor(ctx, name, c.Mint, c.Decimals)
		if err != nil {
			errColor.Fprintln(s.out, err.Error())
			return
		}
		okColor.Fprintf(s.out, "Token balance for %s: %s\n", c.Mint, amount)
		return
	}

	resp, err := s.orch.BalanceFor(ctx, name)
	if err != nil {
		errColor.Fprintln(s.out, err.Error())
		return
	}
	okColor.Fprintf(s.out, "Your Solana balance is: %s SOL\n", resp.SOL)
	if resp.Fiat != "" {
		fmt.Fprintf(s.out, "  (~$%s)\n", resp.Fiat)
	}
}

func (s *Shell) runSend(ctx context.Context, c SendCmd) {
	name, ok := s.orch.CurrentWallet()
	if !ok {
		errColor.Fprintln(s.out, "no wallet selected: connect one and run 'use <name>'")
		return
	}

	req := model.TransferRequest{
		SourceWallet: name,
		Recipient:    c.Recipient,
		Amount:       c.Amount,
	}
	what := c.Amount + " SOL"
	if c.Mint != "" {
		req.Token = &model.TokenSpec{Mint: c.Mint, Decimals: c.Decimals}
		what = c.Amount + " of " + c.Mint
		if c.Decimals == nil {
			infoColor.Fprintln(s.out, "warning: no decimals given, assuming 9; pass 'decimals <n>' for other mints")
		}
	}

	infoColor.Fprintf(s.out, "Send %s from %q to %s?\n", what, name, c.Recipient)
	confirmation := s.readLine("Confirm (yes/no): ")
	code := s.readLine("2FA code: ")

	result := s.orch.ExecuteTransfer(ctx, req, model.AuthorizerInputs{
		Confirmation: confirmation,
		Code:         code,
	})

	switch result.Status {
	case model.TransferSubmitted:
		okColor.Fprintf(s.out, "Transaction successful. Transaction ID: %s\n", result.TxID)
	case model.TransferAuthorizationFailed:
		errColor.Fprintf(s.out, "Not submitted: %v\n", result.Err)
	case model.TransferValidationFailed:
		errColor.Fprintf(s.out, "Invalid transfer: %v\n", result.Err)
	case model.TransferNetworkFailed:
		errColor.Fprintf(s.out, "Network failure: %v\n", result.Err)
		if model.IsTransientNetworkError(result.Err) {
			infoColor.Fprintln(s.out, "The connection failed; you may retry the whole transfer.")
		}
	}
}

func (s *Shell) runHistory(ctx context.Context, c HistoryCmd) {
	name, ok := s.orch.CurrentWallet()
	if !ok {
		errColor.Fprintln(s.out, "no wallet selected: connect one and run 'use <name>'")
		return
	}

	entries, err := s.orch.TransactionHistory(ctx, name, c.Limit)
	if err != nil {
		errColor.Fprintln(s.out, err.Error())
		return
	}
	if len(entries) == 0 {
		infoColor.Fprintln(s.out, "No transactions found.")
		return
	}
	for _, e := range entries {
		status := "ok"
		if e.Err {
			status = "failed"
		}
		ts := ""
		if !e.BlockTime.IsZero() {
			ts = e.BlockTime.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(s.out, "%s  slot=%d  %s  %s\n", e.Signature, e.Slot, ts, status)
	}
}

func (s *Shell) runAsk(ctx context.Context, c AskCmd, line string) {
	if c.Prompt == "" {
		return
	}
	if s.assist == nil {
		infoColor.Fprintln(s.out, "Assistant is not configured (set GENAI_API_KEY).")
		return
	}

	resp, cached, err := s.assist.Ask(ctx, c.Prompt, s.history.String())
	if err != nil {
		errColor.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	replyColor.Fprintf(s.out, "spica: %s\n", resp)
	if cached {
		s.log.Debug("served from cache", zap.String("prompt", c.Prompt))
	}

	s.history.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", c.Prompt, resp))
	if err := s.transcript.Append(line, resp); err != nil {
		s.log.Warn("failed to append transcript", zap.Error(err))
	}
}

func (s *Shell) readLine(prompt string) string {
	promptColor.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return ""
	}
	return s.in.Text()
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Here are the available commands:
- hello: Greets the assistant.
- help: Displays this help menu.
- exit: Ends the session.
- connect <name> [secret]: Registers a wallet from a base58 secret (prompted if omitted).
- use <name>: Selects the current wallet.
- balance [name] [mint <address> [decimals <n>]]: Checks a wallet's SOL or token balance.
- send <amount> to <recipient> [mint <address> [decimals <n>]]: Sends SOL or an SPL token.
- history [limit]: Lists recent transactions for the current wallet.
- price <symbol>: Shows the USD price of SOL or USDC.
Anything else is sent to the assistant.
`)
}
