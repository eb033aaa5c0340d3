package minter_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidgenlabs/faucet/pkg/mintcontroller"
	"github.com/liquidgenlabs/faucet/pkg/minter"
)

type fakeRPC struct {
	sentTx       *solana.Transaction
	sendErr      error
	supplyErr    error
	blockhashErr error
	statusErr    error

	confirmations []*solanarpc.SignatureStatusesResult
	statusCalls   int
}

func (f *fakeRPC) GetTokenSupply(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetTokenSupplyResult, error) {
	if f.supplyErr != nil {
		return nil, f.supplyErr
	}
	return &solanarpc.GetTokenSupplyResult{
		Value: &solanarpc.UiTokenAmount{Amount: "1000000", Decimals: 9},
	}, nil
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{
			Blockhash: solana.HashFromBytes([]byte("00000000000000000000000000000000")),
		},
	}, nil
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sentTx = tx
	return tx.Signatures[0], nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	var status *solanarpc.SignatureStatusesResult
	if f.statusCalls < len(f.confirmations) {
		status = f.confirmations[f.statusCalls]
	}
	f.statusCalls++
	return &solanarpc.GetSignatureStatusesResult{
		Value: []*solanarpc.SignatureStatusesResult{status},
	}, nil
}

type testEnv struct {
	rpc       *fakeRPC
	programID solana.PublicKey
	configKey solana.PublicKey
	mint      solana.PublicKey
	serverKey solana.PrivateKey
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		rpc:       &fakeRPC{},
		programID: solana.NewWallet().PublicKey(),
		configKey: solana.NewWallet().PublicKey(),
		mint:      solana.NewWallet().PublicKey(),
		serverKey: solana.NewWallet().PrivateKey,
	}
}

func (e *testEnv) newMinter(t *testing.T) *minter.Minter {
	t.Helper()
	m, err := minter.New(minter.Config{
		Logger:         slog.Default(),
		RPC:            e.rpc,
		ProgramID:      e.programID,
		ConfigAccount:  e.configKey,
		Mint:           e.mint,
		ServerKey:      e.serverKey,
		ConfirmTimeout: time.Second,
		PollInterval:   time.Second,
	})
	require.NoError(t, err)
	return m
}

func confirmed() *solanarpc.SignatureStatusesResult {
	return &solanarpc.SignatureStatusesResult{
		ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed,
	}
}

func TestMint_SubmitsExpectedAccountOrder(t *testing.T) {
	e := newEnv(t)
	e.rpc.confirmations = []*solanarpc.SignatureStatusesResult{confirmed()}
	m := e.newMinter(t)

	recipient := solana.NewWallet().PublicKey()
	sig, err := m.Mint(context.Background(), recipient, 1000)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())

	require.NotNil(t, e.rpc.sentTx)
	tx := e.rpc.sentTx
	require.Len(t, tx.Message.Instructions, 1)

	walletState, _, err := mintcontroller.DeriveWalletState(e.programID, recipient)
	require.NoError(t, err)
	recipientToken, _, err := solana.FindAssociatedTokenAddress(recipient, e.mint)
	require.NoError(t, err)
	authority, _, err := mintcontroller.DeriveMintAuthority(e.programID, e.mint)
	require.NoError(t, err)

	instr := tx.Message.Instructions[0]
	keys := make([]solana.PublicKey, 0, len(instr.Accounts))
	for _, idx := range instr.Accounts {
		keys = append(keys, tx.Message.AccountKeys[idx])
	}

	assert.Equal(t, []solana.PublicKey{
		e.serverKey.PublicKey(),
		e.configKey,
		walletState,
		e.mint,
		solana.TokenProgramID,
		recipientToken,
		authority,
	}, keys)

	// Instruction data is the tagged wire format.
	data := []byte(instr.Data)
	ix, err := mintcontroller.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, mintcontroller.FaucetMint{Amount: 1000}, ix)

	// The server key signed.
	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
}

func TestMint_ConfirmationTimeout(t *testing.T) {
	e := newEnv(t)
	// Status never reaches a confirmed state within the single poll the
	// one-second timeout allows.
	e.rpc.confirmations = nil
	m := e.newMinter(t)

	_, err := m.Mint(context.Background(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, minter.ErrConfirmationTimeout)
}

func TestMint_OnChainFailure(t *testing.T) {
	e := newEnv(t)
	e.rpc.confirmations = []*solanarpc.SignatureStatusesResult{
		{Err: map[string]any{"InstructionError": []any{0, "Custom"}}},
	}
	m := e.newMinter(t)

	_, err := m.Mint(context.Background(), solana.NewWallet().PublicKey(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, minter.ErrConfirmationTimeout)
}

func TestMint_SendFailure(t *testing.T) {
	e := newEnv(t)
	e.rpc.sendErr = assert.AnError
	m := e.newMinter(t)

	_, err := m.Mint(context.Background(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMint_SupplyProbeFailure(t *testing.T) {
	e := newEnv(t)
	e.rpc.supplyErr = assert.AnError
	m := e.newMinter(t)

	_, err := m.Mint(context.Background(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, e.rpc.sentTx, "nothing is submitted when the RPC probe fails")
}

func TestConfig_Validate(t *testing.T) {
	_, err := minter.New(minter.Config{})
	assert.Error(t, err)
}
