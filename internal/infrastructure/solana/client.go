// Package solana is a minimal JSON-RPC client for the two chain calls
// the verifier needs: getSignatureStatuses and getTransaction.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/chainverify"
)

type Client struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewClient(endpoint string, l *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   l,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc call %s returned status %d", method, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("rpc call %s failed: %s (code %d)", method, parsed.Error.Message, parsed.Error.Code)
	}
	return parsed.Result, nil
}

func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (bool, error) {
	result, err := c.call(ctx, "getSignatureStatuses", []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	})
	if err != nil {
		return false, err
	}

	var status struct {
		Value []*struct {
			ConfirmationStatus string `json:"confirmationStatus"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &status); err != nil {
		return false, fmt.Errorf("failed to decode signature status: %w", err)
	}
	return len(status.Value) > 0 && status.Value[0] != nil, nil
}

// parsedTransactionResponse mirrors the jsonParsed encoding of
// getTransaction, reduced to what verification consumes.
type parsedTransactionResponse struct {
	Meta *struct {
		PreBalances  []int64 `json:"preBalances"`
		PostBalances []int64 `json:"postBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
			} `json:"accountKeys"`
			Instructions []chainverify.Instruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

func (c *Client) GetParsedTransaction(ctx context.Context, signature string) (*chainverify.ParsedTransaction, error) {
	result, err := c.call(ctx, "getTransaction", []any{
		signature,
		map[string]any{"encoding": "jsonParsed", "maxSupportedTransactionVersion": 0},
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var parsed parsedTransactionResponse
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode parsed transaction: %w", err)
	}

	tx := &chainverify.ParsedTransaction{
		Instructions: parsed.Transaction.Message.Instructions,
	}
	for _, key := range parsed.Transaction.Message.AccountKeys {
		tx.AccountKeys = append(tx.AccountKeys, key.Pubkey)
	}
	if parsed.Meta != nil {
		tx.PreBalances = parsed.Meta.PreBalances
		tx.PostBalances = parsed.Meta.PostBalances
	}
	c.logger.Debug("Fetched parsed transaction",
		zap.String("signature", signature),
		zap.Int("accounts", len(tx.AccountKeys)))
	return tx, nil
}
