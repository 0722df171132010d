package transfer

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/layerist/ethereum-transfer-script/config"
	"github.com/layerist/ethereum-transfer-script/log"
)

// Well-known throwaway key (hardhat devnet account #0) and its address.
const (
	testKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testFrom = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTo   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

var errRPC = errors.New("rpc: connection reset")

// mockClient is a scriptable chain.Client. Leading-failure counters
// (nonceErrs, gasPriceErrs, balanceErrs) make the first N calls of an
// operation fail before it starts succeeding.
type mockClient struct {
	balance     *big.Int
	balanceErrs int

	nonce     uint64
	nonceErrs int

	baseFee   *big.Int // nil means no dynamic-fee support
	headerErr error

	gasPrice     *big.Int
	gasPriceErrs int

	gasEstimate uint64
	estimateErr error

	chainID *big.Int

	sendErr error

	receipt        *types.Receipt
	receiptPending int // NotFound for this many leading calls

	balanceCalls  int
	nonceCalls    int
	headerCalls   int
	gasPriceCalls int
	estimateCalls int
	chainIDCalls  int
	sendCalls     int
	receiptCalls  int

	lastSent *types.Transaction
}

func newMockClient() *mockClient {
	return &mockClient{
		balance:     big.NewInt(params.Ether), // 1 ETH
		nonce:       7,
		baseFee:     big.NewInt(10 * params.GWei),
		gasPrice:    big.NewInt(20 * params.GWei),
		gasEstimate: params.TxGas,
		chainID:     big.NewInt(1),
	}
}

func (m *mockClient) BalanceAt(ctx context.Context, account ethCommon.Address, blockNumber *big.Int) (*big.Int, error) {
	m.balanceCalls++
	if m.balanceErrs > 0 {
		m.balanceErrs--
		return nil, errRPC
	}
	return new(big.Int).Set(m.balance), nil
}

func (m *mockClient) PendingNonceAt(ctx context.Context, account ethCommon.Address) (uint64, error) {
	m.nonceCalls++
	if m.nonceErrs > 0 {
		m.nonceErrs--
		return 0, errRPC
	}
	return m.nonce, nil
}

func (m *mockClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	m.headerCalls++
	if m.headerErr != nil {
		return nil, m.headerErr
	}
	return &types.Header{
		Number:  big.NewInt(1000),
		BaseFee: m.baseFee,
	}, nil
}

func (m *mockClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	m.gasPriceCalls++
	if m.gasPriceErrs > 0 {
		m.gasPriceErrs--
		return nil, errRPC
	}
	return new(big.Int).Set(m.gasPrice), nil
}

func (m *mockClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	m.estimateCalls++
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return m.gasEstimate, nil
}

func (m *mockClient) ChainID(ctx context.Context) (*big.Int, error) {
	m.chainIDCalls++
	return new(big.Int).Set(m.chainID), nil
}

func (m *mockClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	m.sendCalls++
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastSent = tx
	return nil
}

func (m *mockClient) TransactionReceipt(ctx context.Context, txHash ethCommon.Hash) (*types.Receipt, error) {
	m.receiptCalls++
	if m.receiptPending > 0 {
		m.receiptPending--
		return nil, ethereum.NotFound
	}
	if m.receipt == nil {
		return nil, ethereum.NotFound
	}
	return m.receipt, nil
}

type testOption func(*config.TransferConfig)

func withAmount(amount string) testOption {
	return func(cfg *config.TransferConfig) { cfg.Amount = amount }
}

func withGasPrice(price string) testOption {
	return func(cfg *config.TransferConfig) { cfg.GasPrice = price }
}

func withConfirm() testOption {
	return func(cfg *config.TransferConfig) {
		confirm := true
		cfg.Confirm = &confirm
	}
}

// newTestTransfer builds a Transfer against the given mock with
// sleeping stubbed out. sleeps counts retry delays and receipt-poll
// waits.
func newTestTransfer(t *testing.T, client *mockClient, sleeps *int, opts ...testOption) *Transfer {
	t.Helper()

	logger, err := log.NewLogger("test", io.Discard, log.FmtLogfmt, log.LevelError)
	require.NoError(t, err)

	confirm := false
	cfg := &config.TransferConfig{
		Endpoint:   "http://localhost:8545",
		From:       testFrom,
		To:         testTo,
		PrivateKey: testKey,
		Amount:     "0.01",
		Confirm:    &confirm,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(t, cfg.Validate())

	tr, err := New(cfg, client, logger)
	require.NoError(t, err)

	stub := func(time.Duration) {
		if sleeps != nil {
			*sleeps++
		}
	}
	tr.retrier.sleep = stub
	tr.sleep = stub
	return tr
}
