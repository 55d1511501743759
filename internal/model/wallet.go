package model

import "time"

// BalanceResponse is the display-ready balance for one wallet.
type BalanceResponse struct {
	Name    string
	Address string
	SOL     string // display units
	Fiat    string // SOL value in fiat via the price feed, "" when unavailable
}

// ConnectResponse reports a successful wallet registration.
type ConnectResponse struct {
	Name    string
	Address string
	QR      string // terminal-renderable QR of the address
}

// HistoryEntry is one confirmed signature for an address, newest first.
type HistoryEntry struct {
	Signature string
	Slot      uint64
	BlockTime time.Time
	Err       bool // transaction landed but failed on chain
}
