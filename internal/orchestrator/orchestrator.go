// Package orchestrator composes the registry, builder, authorizer and
// network client into the operations the command dispatcher may call. All
// inputs are plain scalars and all outputs are display-ready values or the
// typed error kinds; no internal type crosses this boundary.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"spica/internal/auth"
	"spica/internal/common"
	"spica/internal/model"
	"spica/internal/txn"
	"spica/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Network is the ledger boundary the orchestrator submits to and reads from.
type Network interface {
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
	Submit(ctx context.Context, tx *solana.Transaction) (string, error)
	Signatures(ctx context.Context, address solana.PublicKey, limit int) ([]model.HistoryEntry, error)
}

// Prices is the external price feed boundary.
type Prices interface {
	Price(ctx context.Context, symbol string) (string, error)
}

// Orchestrator wires the core components together. It owns no global state;
// every collaborator is injected.
type Orchestrator struct {
	registry   *wallet.Registry
	builder    *txn.Builder
	authorizer *auth.Authorizer
	net        Network
	prices     Prices
	log        *zap.Logger
}

// New creates an Orchestrator over explicitly owned components.
func New(registry *wallet.Registry, builder *txn.Builder, authorizer *auth.Authorizer, net Network, prices Prices, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		builder:    builder,
		authorizer: authorizer,
		net:        net,
		prices:     prices,
		log:        log,
	}
}

// Connect registers a wallet from base58 secret material and returns its
// address with a terminal QR rendering.
func (o *Orchestrator) Connect(name, secret string) (*model.ConnectResponse, error) {
	address, err := o.registry.Connect(name, secret)
	if err != nil {
		return nil, err
	}

	qrStr := ""
	if qr, err := qrcode.New(address, qrcode.Medium); err == nil {
		qrStr = qr.ToSmallString(false)
	}

	return &model.ConnectResponse{
		Name:    name,
		Address: address,
		QR:      qrStr,
	}, nil
}

// SwitchCurrent points the current-wallet pointer at name.
func (o *Orchestrator) SwitchCurrent(name string) error {
	return o.registry.SwitchCurrent(name)
}

// CurrentWallet returns the current wallet name, if set.
func (o *Orchestrator) CurrentWallet() (string, bool) {
	return o.registry.Current()
}

// BalanceFor resolves name and returns its SOL balance in display units,
// with a best-effort fiat estimate. Unknown names fail before any network
// call.
func (o *Orchestrator) BalanceFor(ctx context.Context, name string) (*model.BalanceResponse, error) {
	address, err := o.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	lamports, err := o.net.Balance(ctx, address)
	if err != nil {
		return nil, err
	}

	sol := common.LamportsToSOL(lamports)
	resp := &model.BalanceResponse{
		Name:    name,
		Address: address.String(),
		SOL:     sol,
	}

	// Fiat estimate is decoration; a price feed outage must not hide the
	// balance. Floats are for display only.
	if rate, err := o.prices.Price(ctx, "SOL"); err == nil {
		solF, _ := strconv.ParseFloat(sol, 64)
		rateF, _ := strconv.ParseFloat(rate, 64)
		resp.Fiat = fmt.Sprintf("%.2f", solF*rateF)
	} else {
		o.log.Warn("price feed unavailable", zap.Error(err))
	}

	return resp, nil
}

// TokenBalanceFor returns name's balance of the given SPL mint in display
// units. A wallet without the token account reads as zero. Decimals defaults
// to 9 when nil, matching the transfer path.
func (o *Orchestrator) TokenBalanceFor(ctx context.Context, name, mint string, decimals *uint8) (string, error) {
	address, err := o.registry.Resolve(name)
	if err != nil {
		return "", err
	}

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return "", model.NewValidationError("invalid mint address")
	}
	dec := common.SOLDecimals
	if decimals != nil {
		if *decimals > 9 {
			return "", model.NewValidationError("decimals must be between 0 and 9")
		}
		dec = int(*decimals)
	}

	units, err := o.net.TokenBalance(ctx, address, mintKey)
	if err != nil {
		return "", err
	}
	return common.FormatUnits(units, dec), nil
}

// ExecuteTransfer runs build → confirm → verify code → submit, stopping at
// the first failure. Transfer attempts for the same wallet are serialized: a
// second attempt blocks until the prior one reaches a terminal state.
func (o *Orchestrator) ExecuteTransfer(ctx context.Context, req model.TransferRequest, inputs model.AuthorizerInputs) model.TransferResult {
	lock := o.registry.TransferLock(req.SourceWallet)
	lock.Lock()
	defer lock.Unlock()

	built, err := o.builder.Build(ctx, req)
	if err != nil {
		if model.IsTransientNetworkError(err) || model.IsRemoteRejectionError(err) {
			return model.TransferResult{Status: model.TransferNetworkFailed, Err: err}
		}
		return model.TransferResult{Status: model.TransferValidationFailed, Err: err}
	}

	attempt := o.authorizer.Begin()
	if err := attempt.Confirm(inputs.Confirmation); err != nil {
		o.log.Info("transfer rejected at confirmation", zap.String("wallet", req.SourceWallet))
		return model.TransferResult{Status: model.TransferAuthorizationFailed, Err: err}
	}
	if err := attempt.VerifyCode(inputs.Code); err != nil {
		o.log.Info("transfer rejected at second factor", zap.String("wallet", req.SourceWallet))
		return model.TransferResult{Status: model.TransferAuthorizationFailed, Err: err}
	}

	txID, err := o.net.Submit(ctx, built.Tx)
	if err != nil {
		return model.TransferResult{Status: model.TransferNetworkFailed, Err: err}
	}

	o.log.Info("transfer submitted",
		zap.String("wallet", req.SourceWallet),
		zap.String("recipient", built.Recipient),
		zap.String("amount", built.Amount),
		zap.Uint64("units", built.Units),
		zap.String("txId", txID),
	)
	return model.TransferResult{Status: model.TransferSubmitted, TxID: txID}
}

// TransactionHistory returns up to limit signatures for name, newest first.
func (o *Orchestrator) TransactionHistory(ctx context.Context, name string, limit int) ([]model.HistoryEntry, error) {
	address, err := o.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}
	return o.net.Signatures(ctx, address, limit)
}

// Price returns the USD price of symbol from the external feed.
func (o *Orchestrator) Price(ctx context.Context, symbol string) (string, error) {
	return o.prices.Price(ctx, symbol)
}
