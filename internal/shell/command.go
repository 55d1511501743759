package shell

import (
	"strconv"
	"strings"

	"spica/internal/model"
)

// Command is the closed set of shell request variants. Dispatch is by exact
// command kind: a prompt merely containing "help" is assistant input, not
// the help command.
type Command interface {
	isCommand()
}

type HelloCmd struct{}

type HelpCmd struct{}

type ExitCmd struct{}

type ConnectCmd struct {
	Name   string
	Secret string // empty: prompt masked
}

type UseCmd struct {
	Name string
}

type BalanceCmd struct {
	Name     string // empty: current wallet
	Mint     string // empty: native SOL balance
	Decimals *uint8
}

type SendCmd struct {
	Amount    string
	Recipient string
	Mint      string // empty: native transfer
	Decimals  *uint8
}

type HistoryCmd struct {
	Limit int
}

type PriceCmd struct {
	Symbol string
}

// AskCmd is everything that is not a known command: free-form assistant
// input.
type AskCmd struct {
	Prompt string
}

func (HelloCmd) isCommand()   {}
func (HelpCmd) isCommand()    {}
func (ExitCmd) isCommand()    {}
func (ConnectCmd) isCommand() {}
func (UseCmd) isCommand()     {}
func (BalanceCmd) isCommand() {}
func (SendCmd) isCommand()    {}
func (HistoryCmd) isCommand() {}
func (PriceCmd) isCommand()   {}
func (AskCmd) isCommand()     {}

// Parse turns one input line into a Command. Unknown leading words fall
// through to AskCmd; malformed known commands return a ValidationError.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return AskCmd{Prompt: ""}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "hello", "hi":
		if len(fields) == 1 {
			return HelloCmd{}, nil
		}
	case "help":
		if len(fields) == 1 {
			return HelpCmd{}, nil
		}
	case "exit", "quit":
		if len(fields) == 1 {
			return ExitCmd{}, nil
		}
	case "connect":
		switch len(fields) {
		case 2:
			return ConnectCmd{Name: fields[1]}, nil
		case 3:
			return ConnectCmd{Name: fields[1], Secret: fields[2]}, nil
		default:
			return nil, model.NewValidationError("usage: connect <name> [secret]")
		}
	case "use":
		if len(fields) == 2 {
			return UseCmd{Name: fields[1]}, nil
		}
		return nil, model.NewValidationError("usage: use <name>")
	case "balance":
		return parseBalance(fields)
	case "send":
		return parseSend(fields)
	case "history":
		switch len(fields) {
		case 1:
			return HistoryCmd{}, nil
		case 2:
			limit, err := strconv.Atoi(fields[1])
			if err != nil || limit <= 0 {
				return nil, model.NewValidationError("usage: history [limit]")
			}
			return HistoryCmd{Limit: limit}, nil
		default:
			return nil, model.NewValidationError("usage: history [limit]")
		}
	case "price":
		if len(fields) == 2 {
			return PriceCmd{Symbol: fields[1]}, nil
		}
		return nil, model.NewValidationError("usage: price <symbol>")
	}

	return AskCmd{Prompt: line}, nil
}

// parseBalance handles:
//
//	balance [name]
//	balance [name] mint <address> [decimals <n>]
func parseBalance(fields []string) (Command, error) {
	usage := model.NewValidationError("usage: balance [name] [mint <address> [decimals <n>]]")

	cmd := BalanceCmd{}
	rest := fields[1:]
	if len(rest) > 0 && strings.ToLower(rest[0]) != "mint" {
		cmd.Name = rest[0]
		rest = rest[1:]
	}
	for len(rest) > 0 {
		switch strings.ToLower(rest[0]) {
		case "mint":
			if len(rest) < 2 {
				return nil, usage
			}
			cmd.Mint = rest[1]
			rest = rest[2:]
		case "decimals":
			if len(rest) < 2 {
				return nil, usage
			}
			n, err := strconv.ParseUint(rest[1], 10, 8)
			if err != nil {
				return nil, usage
			}
			d := uint8(n)
			cmd.Decimals = &d
			rest = rest[2:]
		default:
			return nil, usage
		}
	}

	if cmd.Decimals != nil && cmd.Mint == "" {
		return nil, model.NewValidationError("decimals requires mint")
	}
	return cmd, nil
}

// parseSend handles:
//
//	send <amount> to <recipient>
//	send <amount> to <recipient> mint <address> [decimals <n>]
func parseSend(fields []string) (Command, error) {
	usage := model.NewValidationError("usage: send <amount> to <recipient> [mint <address> [decimals <n>]]")

	if len(fields) < 4 || strings.ToLower(fields[2]) != "to" {
		return nil, usage
	}

	cmd := SendCmd{Amount: fields[1], Recipient: fields[3]}
	rest := fields[4:]
	for len(rest) > 0 {
		switch strings.ToLower(rest[0]) {
		case "mint":
			if len(rest) < 2 {
				return nil, usage
			}
			cmd.Mint = rest[1]
			rest = rest[2:]
		case "decimals":
			if len(rest) < 2 {
				return nil, usage
			}
			n, err := strconv.ParseUint(rest[1], 10, 8)
			if err != nil {
				return nil, usage
			}
			d := uint8(n)
			cmd.Decimals = &d
			rest = rest[2:]
		default:
			return nil, usage
		}
	}

	if cmd.Decimals != nil && cmd.Mint == "" {
		return nil, model.NewValidationError("decimals requires mint")
	}
	return cmd, nil
}
