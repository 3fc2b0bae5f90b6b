package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/httpclient"
)

// ErrNotFound is returned when the node does not know the transaction yet.
var ErrNotFound = errors.New("transaction not found")

const maxResponseBytes = 4 << 20

type Config struct {
	RPCURL  string
	Timeout time.Duration
}

// Client is a minimal EVM JSON-RPC client.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	nextID     atomic.Int64
}

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type Receipt struct {
	TxHash      string
	Success     bool
	BlockNumber uint64
	From        string
	To          string
}

type Transaction struct {
	Hash        string
	From        string
	To          string
	Value       *big.Int
	BlockNumber uint64
	Pending     bool
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("rpc url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		rpcURL:     cfg.RPCURL,
		httpClient: httpclient.New(timeout),
	}, nil
}

// Call performs one JSON-RPC request and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc http status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("rpc response is not json")
	}

	parsed := gjson.ParseBytes(raw)
	if rpcErr := parsed.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		return nil, &RPCError{Code: int(rpcErr.Get("code").Int()), Message: rpcErr.Get("message").String()}
	}
	return json.RawMessage(parsed.Get("result").Raw), nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.Call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return 0, err
	}
	return parseQuantity(gjson.ParseBytes(result).String())
}

// TransactionReceipt returns ErrNotFound while the transaction is unmined.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", []any{txHash})
	if err != nil {
		return Receipt{}, err
	}
	r := gjson.ParseBytes(result)
	if !r.IsObject() {
		return Receipt{}, ErrNotFound
	}

	status, err := parseQuantity(r.Get("status").String())
	if err != nil {
		return Receipt{}, fmt.Errorf("parse receipt status: %w", err)
	}
	block, err := parseQuantity(r.Get("blockNumber").String())
	if err != nil {
		return Receipt{}, fmt.Errorf("parse receipt block: %w", err)
	}

	return Receipt{
		TxHash:      strings.ToLower(r.Get("transactionHash").String()),
		Success:     status == 1,
		BlockNumber: block,
		From:        strings.ToLower(r.Get("from").String()),
		To:          strings.ToLower(r.Get("to").String()),
	}, nil
}

func (c *Client) TransactionByHash(ctx context.Context, txHash string) (Transaction, error) {
	result, err := c.Call(ctx, "eth_getTransactionByHash", []any{txHash})
	if err != nil {
		return Transaction{}, err
	}
	r := gjson.ParseBytes(result)
	if !r.IsObject() {
		return Transaction{}, ErrNotFound
	}

	value, ok := new(big.Int).SetString(strings.TrimPrefix(r.Get("value").String(), "0x"), 16)
	if !ok {
		return Transaction{}, fmt.Errorf("parse transaction value %q", r.Get("value").String())
	}

	tx := Transaction{
		Hash:  strings.ToLower(r.Get("hash").String()),
		From:  strings.ToLower(r.Get("from").String()),
		To:    strings.ToLower(r.Get("to").String()),
		Value: value,
	}
	if bn := r.Get("blockNumber"); bn.Type == gjson.String {
		tx.BlockNumber, err = parseQuantity(bn.String())
		if err != nil {
			return Transaction{}, fmt.Errorf("parse transaction block: %w", err)
		}
	} else {
		tx.Pending = true
	}
	return tx, nil
}

func parseQuantity(hex string) (uint64, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if hex == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	return strconv.ParseUint(hex, 16, 64)
}
