package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spica/internal/auth"
	"spica/internal/model"
	"spica/internal/secrets"
	"spica/internal/txn"
	"spica/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

type fakeNetwork struct {
	mu           sync.Mutex
	balance      uint64
	tokenUnits   uint64
	balanceCalls int
	tokenCalls   int
	submitCalls  int
	sigCalls     int
	submitErr    error
	submitDelay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeNetwork) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, nil
}

func (f *fakeNetwork) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	return f.tokenUnits, nil
}

func (f *fakeNetwork) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	// A transfer is in flight from blockhash stamping until submission
	// returns; overlap here means two attempts raced on the reference.
	cur := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	return solana.MustHashFromBase58("11111111111111111111111111111111"), nil
}

func (f *fakeNetwork) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	return true, nil
}

func (f *fakeNetwork) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	if f.submitDelay > 0 {
		time.Sleep(f.submitDelay)
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "sig-ok", nil
}

func (f *fakeNetwork) Signatures(ctx context.Context, address solana.PublicKey, limit int) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigCalls++
	return []model.HistoryEntry{{Signature: "abc", Slot: 42}}, nil
}

type fakePrices struct {
	price string
	err   error
}

func (f *fakePrices) Price(ctx context.Context, symbol string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.price, nil
}

type fixture struct {
	orch *Orchestrator
	net  *fakeNetwork
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := secrets.New([]byte("test passphrase"))
	t.Cleanup(store.Close)

	registry := wallet.NewRegistry(store, nil, zap.NewNop())
	net := &fakeNetwork{balance: 2_000_000_000}
	builder := txn.NewBuilder(net, registry)
	authorizer, _, err := auth.NewAuthorizer(testTOTPSecret, zap.NewNop())
	require.NoError(t, err)

	orch := New(registry, builder, authorizer, net, &fakePrices{price: "100.00"}, zap.NewNop())
	return &fixture{orch: orch, net: net}
}

func (f *fixture) connect(t *testing.T, name string) {
	t.Helper()
	_, err := f.orch.Connect(name, solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)
}

func newAddress() string {
	for {
		addr := solana.NewWallet().PublicKey().String()
		if len(addr) == 44 {
			return addr
		}
	}
}

func validCode(t *testing.T) string {
	t.Helper()
	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)
	return code
}

func TestBalanceForUnknownWalletNoNetworkCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.BalanceFor(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, model.IsNotFoundError(err))
	assert.Zero(t, f.net.balanceCalls)
}

func TestBalanceFor(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	resp, err := f.orch.BalanceFor(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "2.000000000", resp.SOL)
	assert.Equal(t, "200.00", resp.Fiat)
}

func TestBalanceForSurvivesPriceOutage(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")
	f.orch.prices = &fakePrices{err: &model.TransientNetworkError{Err: errors.New("down")}}

	resp, err := f.orch.BalanceFor(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "2.000000000", resp.SOL)
	assert.Empty(t, resp.Fiat)
}

func TestTokenBalanceFor(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")
	f.net.tokenUnits = 10_000_000

	six := uint8(6)
	amount, err := f.orch.TokenBalanceFor(context.Background(), "alice", newAddress(), &six)
	require.NoError(t, err)
	assert.Equal(t, "10.000000", amount)

	// Nil decimals falls back to 9.
	amount, err = f.orch.TokenBalanceFor(context.Background(), "alice", newAddress(), nil)
	require.NoError(t, err)
	assert.Equal(t, "0.010000000", amount)

	_, err = f.orch.TokenBalanceFor(context.Background(), "alice", "bogus", nil)
	assert.True(t, model.IsValidationError(err))

	_, err = f.orch.TokenBalanceFor(context.Background(), "ghost", newAddress(), nil)
	assert.True(t, model.IsNotFoundError(err))
	assert.Equal(t, 2, f.net.tokenCalls)
}

func TestExecuteTransferSubmits(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "alice", Recipient: newAddress(), Amount: "1.5"},
		model.AuthorizerInputs{Confirmation: "yes", Code: validCode(t)},
	)

	require.NoError(t, result.Err)
	assert.Equal(t, model.TransferSubmitted, result.Status)
	assert.Equal(t, "sig-ok", result.TxID)
	assert.Equal(t, 1, f.net.submitCalls)
}

func TestExecuteTransferDeclinedNeverSubmits(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "alice", Recipient: newAddress(), Amount: "1.5"},
		model.AuthorizerInputs{Confirmation: "no", Code: validCode(t)},
	)

	assert.Equal(t, model.TransferAuthorizationFailed, result.Status)
	assert.True(t, model.IsAuthorizationError(result.Err))
	assert.Zero(t, f.net.submitCalls)
}

func TestExecuteTransferBadCodeNeverSubmits(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "alice", Recipient: newAddress(), Amount: "1.5"},
		model.AuthorizerInputs{Confirmation: "yes", Code: "000000"},
	)

	assert.Equal(t, model.TransferAuthorizationFailed, result.Status)
	assert.Zero(t, f.net.submitCalls)
}

func TestExecuteTransferValidationFailed(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "alice", Recipient: "bogus", Amount: "1"},
		model.AuthorizerInputs{Confirmation: "yes", Code: validCode(t)},
	)

	assert.Equal(t, model.TransferValidationFailed, result.Status)
	assert.True(t, model.IsValidationError(result.Err))
	assert.Zero(t, f.net.submitCalls)
}

func TestExecuteTransferUnknownWallet(t *testing.T) {
	f := newFixture(t)

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "ghost", Recipient: newAddress(), Amount: "1"},
		model.AuthorizerInputs{Confirmation: "yes", Code: validCode(t)},
	)

	assert.Equal(t, model.TransferValidationFailed, result.Status)
	assert.True(t, model.IsNotFoundError(result.Err))
	assert.Zero(t, f.net.submitCalls)
}

func TestExecuteTransferNetworkFailed(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")
	f.net.submitErr = &model.RemoteRejectionError{Err: errors.New("insufficient funds")}

	result := f.orch.ExecuteTransfer(context.Background(),
		model.TransferRequest{SourceWallet: "alice", Recipient: newAddress(), Amount: "1"},
		model.AuthorizerInputs{Confirmation: "yes", Code: validCode(t)},
	)

	assert.Equal(t, model.TransferNetworkFailed, result.Status)
	assert.True(t, model.IsRemoteRejectionError(result.Err))
}

func TestExecuteTransferSerializedPerWallet(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")
	f.net.submitDelay = 50 * time.Millisecond

	recipient := newAddress()
	code := validCode(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := f.orch.ExecuteTransfer(context.Background(),
				model.TransferRequest{SourceWallet: "alice", Recipient: recipient, Amount: "0.1"},
				model.AuthorizerInputs{Confirmation: "yes", Code: code},
			)
			assert.Equal(t, model.TransferSubmitted, result.Status)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, f.net.submitCalls)
	// Never two attempts between blockhash stamping and terminal state.
	assert.Equal(t, int32(1), f.net.maxInFlight.Load())
}

func TestTransactionHistory(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "alice")

	entries, err := f.orch.TransactionHistory(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].Signature)

	_, err = f.orch.TransactionHistory(context.Background(), "ghost", 10)
	assert.True(t, model.IsNotFoundError(err))
	assert.Equal(t, 1, f.net.sigCalls)
}

func TestConnectReturnsQR(t *testing.T) {
	f := newFixture(t)

	resp, err := f.orch.Connect("alice", solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Address)
	assert.NotEmpty(t, resp.QR)

	require.NoError(t, f.orch.SwitchCurrent("alice"))
	name, ok := f.orch.CurrentWallet()
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}
