package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/layerist/ethereum-transfer-script/metrics"
)

// InstrumentedClient wraps a Client with Prometheus instrumentation of
// per-operation counts and latencies.
type InstrumentedClient struct {
	inner   Client
	metrics metrics.TransferMetrics
}

var _ Client = (*InstrumentedClient)(nil)

// WithMetrics instruments the given client.
func WithMetrics(inner Client, m metrics.TransferMetrics) *InstrumentedClient {
	return &InstrumentedClient{inner: inner, metrics: m}
}

func (c *InstrumentedClient) observe(operation string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.metrics.RPCOperations(operation, status).Inc()
}

func (c *InstrumentedClient) BalanceAt(ctx context.Context, account ethCommon.Address, blockNumber *big.Int) (*big.Int, error) {
	defer c.metrics.RPCLatencies("balance_at").ObserveDuration()
	balance, err := c.inner.BalanceAt(ctx, account, blockNumber)
	c.observe("balance_at", err)
	return balance, err
}

func (c *InstrumentedClient) PendingNonceAt(ctx context.Context, account ethCommon.Address) (uint64, error) {
	defer c.metrics.RPCLatencies("pending_nonce_at").ObserveDuration()
	nonce, err := c.inner.PendingNonceAt(ctx, account)
	c.observe("pending_nonce_at", err)
	return nonce, err
}

func (c *InstrumentedClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	defer c.metrics.RPCLatencies("header_by_number").ObserveDuration()
	header, err := c.inner.HeaderByNumber(ctx, number)
	c.observe("header_by_number", err)
	return header, err
}

func (c *InstrumentedClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	defer c.metrics.RPCLatencies("suggest_gas_price").ObserveDuration()
	price, err := c.inner.SuggestGasPrice(ctx)
	c.observe("suggest_gas_price", err)
	return price, err
}

func (c *InstrumentedClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	defer c.metrics.RPCLatencies("estimate_gas").ObserveDuration()
	gas, err := c.inner.EstimateGas(ctx, msg)
	c.observe("estimate_gas", err)
	return gas, err
}

func (c *InstrumentedClient) ChainID(ctx context.Context) (*big.Int, error) {
	defer c.metrics.RPCLatencies("chain_id").ObserveDuration()
	id, err := c.inner.ChainID(ctx)
	c.observe("chain_id", err)
	return id, err
}

func (c *InstrumentedClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	defer c.metrics.RPCLatencies("send_transaction").ObserveDuration()
	err := c.inner.SendTransaction(ctx, tx)
	c.observe("send_transaction", err)
	return err
}

func (c *InstrumentedClient) TransactionReceipt(ctx context.Context, txHash ethCommon.Hash) (*types.Receipt, error) {
	defer c.metrics.RPCLatencies("transaction_receipt").ObserveDuration()
	receipt, err := c.inner.TransactionReceipt(ctx, txHash)
	c.observe("transaction_receipt", err)
	return receipt, err
}
