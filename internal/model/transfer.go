package model

// TokenSpec identifies an SPL token for a token transfer.
// Decimals must match the mint; when left nil the builder falls back to 9,
// which is only correct for SOL-like precision. Passing explicit decimals is
// the trusted path for arbitrary tokens.
type TokenSpec struct {
	Mint     string
	Decimals *uint8
}

// TransferRequest describes one requested transfer. Constructed fresh per
// operation, never persisted.
type TransferRequest struct {
	SourceWallet string
	Recipient    string
	Amount       string // decimal string, parsed losslessly
	Token        *TokenSpec
}

// TransferStatus discriminates the outcome of ExecuteTransfer.
type TransferStatus string

const (
	TransferSubmitted           TransferStatus = "SUBMITTED"
	TransferValidationFailed    TransferStatus = "VALIDATION_FAILED"
	TransferAuthorizationFailed TransferStatus = "AUTHORIZATION_FAILED"
	TransferNetworkFailed       TransferStatus = "NETWORK_FAILED"
)

// TransferResult is the discriminated result of one transfer attempt.
// Err carries the typed failure for every status except TransferSubmitted.
type TransferResult struct {
	Status TransferStatus
	TxID   string
	Err    error
}

// AuthorizerInputs carries the operator's answers for the two
// authorization stages of a transfer.
type AuthorizerInputs struct {
	Confirmation string
	Code         string
}
