// Package txn turns validated transfer requests into signed, submittable
// Solana transactions.
package txn

import (
	"context"

	"spica/internal/common"
	"spica/internal/model"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

const (
	// Canonical base58 length of a Solana address as accepted here.
	addressLen = 44

	// Legacy fallback when a token transfer carries no decimals. Only
	// correct for 9-decimal mints; explicit decimals is the trusted path.
	defaultTokenDecimals = 9

	maxTokenDecimals = 9
)

// Network provides the network-issued pieces a build needs.
type Network interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)
}

// Keys resolves wallet names and grants scoped signing access.
type Keys interface {
	Resolve(name string) (solana.PublicKey, error)
	WithPrivateKey(name string, fn func(priv solana.PrivateKey) error) error
}

// BuiltTransaction is a signed payload plus its logical parameters, kept
// alongside for display. Owned by the orchestration call that created it and
// discarded once submission completes or fails.
type BuiltTransaction struct {
	Tx        *solana.Transaction
	Source    string
	Recipient string
	Amount    string
	Units     uint64 // smallest-unit amount
	Token     *model.TokenSpec
}

// Builder constructs and signs transactions. It performs no submission.
type Builder struct {
	net  Network
	keys Keys
}

// NewBuilder creates a Builder over the given network and key source.
func NewBuilder(net Network, keys Keys) *Builder {
	return &Builder{net: net, keys: keys}
}

// Build validates req (fail fast, first failing check wins), stamps a fresh
// blockhash, and signs with the source wallet's key. The key material is not
// retained beyond the call.
func (b *Builder) Build(ctx context.Context, req model.TransferRequest) (*BuiltTransaction, error) {
	// 1. recipient well-formed
	if len(req.Recipient) != addressLen {
		return nil, model.NewValidationError("invalid recipient address")
	}
	toPubkey, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return nil, model.NewValidationError("invalid recipient address")
	}

	// 2. amount strictly positive and parseable
	if !common.IsPositiveAmount(req.Amount) {
		return nil, model.NewValidationError("invalid transaction amount")
	}

	// 3. token variant checks
	var mint solana.PublicKey
	decimals := uint8(common.SOLDecimals)
	if req.Token != nil {
		mint, err = solana.PublicKeyFromBase58(req.Token.Mint)
		if err != nil {
			return nil, model.NewValidationError("invalid token mint address")
		}
		if req.Token.Decimals != nil {
			decimals = *req.Token.Decimals
		} else {
			decimals = defaultTokenDecimals
		}
		if decimals > maxTokenDecimals {
			return nil, model.NewValidationError("token decimals out of range")
		}
	}

	fromPubkey, err := b.keys.Resolve(req.SourceWallet)
	if err != nil {
		return nil, err
	}

	units, err := common.ParseUnits(req.Amount, int(decimals))
	if err != nil {
		return nil, model.NewValidationError("invalid transaction amount")
	}
	if units == 0 {
		return nil, model.NewValidationError("amount rounds to zero at %d decimals", decimals)
	}

	var instructions []solana.Instruction
	if req.Token == nil {
		instructions = append(instructions, system.NewTransferInstruction(
			units,
			fromPubkey,
			toPubkey,
		).Build())
	} else {
		instructions, err = b.tokenInstructions(ctx, fromPubkey, toPubkey, mint, units, decimals)
		if err != nil {
			return nil, err
		}
	}

	recent, err := b.net.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent,
		solana.TransactionPayer(fromPubkey),
	)
	if err != nil {
		return nil, model.NewValidationError("failed to create transaction: %v", err)
	}

	err = b.keys.WithPrivateKey(req.SourceWallet, func(priv solana.PrivateKey) error {
		if !priv.PublicKey().Equals(fromPubkey) {
			return model.NewValidationError("private key does not match wallet address")
		}
		_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if priv.PublicKey().Equals(key) {
				return &priv
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &BuiltTransaction{
		Tx:        tx,
		Source:    req.SourceWallet,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Units:     units,
		Token:     req.Token,
	}, nil
}

// tokenInstructions builds a checked SPL transfer, prepending creation of
// the destination associated token account when it does not exist yet.
func (b *Builder) tokenInstructions(ctx context.Context, from, to, mint solana.PublicKey, units uint64, decimals uint8) ([]solana.Instruction, error) {
	sourceATA, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return nil, model.NewValidationError("failed to derive source token account: %v", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return nil, model.NewValidationError("failed to derive destination token account: %v", err)
	}

	var instructions []solana.Instruction

	exists, err := b.net.AccountExists(ctx, destATA)
	if err != nil {
		return nil, err
	}
	if !exists {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			from, // payer
			to,   // owner
			mint,
		).Build())
	}

	instructions = append(instructions, token.NewTransferCheckedInstruction(
		units,
		decimals,
		sourceATA,
		mint,
		destATA,
		from,
		[]solana.PublicKey{},
	).Build())

	return instructions, nil
}
