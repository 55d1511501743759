package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"spica/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// SolanaClient wraps the Solana RPC endpoint. Every method can fail with
// model.TransientNetworkError (connection level, caller may re-invoke) or
// model.RemoteRejectionError (the endpoint understood and refused the call).
// Neither class is retried here.
type SolanaClient struct {
	rpcClient *rpc.Client
	rpcURL    string
	log       *zap.Logger
}

// NewSolanaClient creates a client for the given RPC URL.
func NewSolanaClient(rpcURL string, log *zap.Logger) *SolanaClient {
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		log:       log,
	}
}

// Balance returns the SOL balance in lamports for address.
func (c *SolanaClient) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	out, err := c.rpcClient.GetBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, classify(err)
	}
	return out.Value, nil
}

// TokenBalance returns the smallest-unit balance of the mint's associated
// token account for owner. A missing token account reads as zero.
func (c *SolanaClient) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, model.NewValidationError("failed to derive token account: %v", err)
	}

	out, err := c.rpcClient.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if isNotFoundErr(err) {
			return 0, nil
		}
		return 0, classify(err)
	}
	if out.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, &model.RemoteRejectionError{Err: errors.New("malformed token balance amount")}
	}
	return amount, nil
}

// LatestBlockhash returns a fresh transaction reference. Each built
// transaction must be stamped with one at construction time.
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, classify(err)
	}
	return recent.Value.Blockhash, nil
}

// AccountExists reports whether an account is present on chain.
func (c *SolanaClient) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	info, err := c.rpcClient.GetAccountInfo(ctx, address)
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, classify(err)
	}
	return info.Value != nil, nil
}

// Submit sends a signed transaction and returns its submission signature.
func (c *SolanaClient) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", classify(err)
	}

	c.log.Info("transaction submitted",
		zap.String("signature", sig.String()),
		zap.String("rpc", c.rpcURL),
	)
	return sig.String(), nil
}

// Signatures returns up to limit confirmed signatures for address, newest
// first (RPC ordering).
func (c *SolanaClient) Signatures(ctx context.Context, address solana.PublicKey, limit int) ([]model.HistoryEntry, error) {
	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(
		ctx,
		address,
		&rpc.GetSignaturesForAddressOpts{
			Limit: &limit,
		},
	)
	if err != nil {
		return nil, classify(err)
	}

	entries := make([]model.HistoryEntry, 0, len(sigs))
	for _, sig := range sigs {
		entry := model.HistoryEntry{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Err:       sig.Err != nil,
		}
		if sig.BlockTime != nil {
			entry.BlockTime = time.Unix(int64(*sig.BlockTime), 0)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// classify splits RPC failures into the two surfaced error kinds. An
// *jsonrpc.RPCError means the endpoint received and refused the call;
// everything else (DNS, dial, timeout) is connection level.
func classify(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &model.RemoteRejectionError{Err: err}
	}
	return &model.TransientNetworkError{Err: err}
}

// isNotFoundErr checks if error indicates that the account doesn't exist
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
