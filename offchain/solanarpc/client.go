package solanarpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

var (
	ErrMissingRPCURL    = errors.New("missing rpc url")
	ErrRPCError         = errors.New("solana rpc error")
	ErrAccountNotFound  = errors.New("account not found")
	ErrTransactionError = errors.New("transaction failed")
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrRPCError.Error(), e.Code, e.Message)
}

func (e *RPCError) Unwrap() error { return ErrRPCError }

type Client struct {
	rpcURL string
	http   *http.Client

	// Retry policy for rate limited and undecodable responses.
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func New(rpcURL string, httpClient *http.Client) *Client {
	rpcURL = strings.TrimSpace(rpcURL)
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		rpcURL:         rpcURL,
		http:           httpClient,
		maxAttempts:    7,
		initialBackoff: 1 * time.Second,
		maxBackoff:     10 * time.Second,
	}
}

func (c *Client) URL() string {
	return c.rpcURL
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func isRateLimitedRPCError(code int, message string) bool {
	if code == 429 || code == -32429 {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(message))
	return strings.Contains(msg, "rate") && strings.Contains(msg, "limit")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) rpcCall(ctx context.Context, method string, params any, out any) error {
	if c == nil {
		return errors.New("nil rpc client")
	}
	if strings.TrimSpace(c.rpcURL) == "" {
		return ErrMissingRPCURL
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	backoff := c.initialBackoff
	// retry waits out the backoff before another attempt. It reports false
	// once attempts are exhausted, and ctx's error when ctx ends first.
	retry := func(attempt int) (bool, error) {
		if attempt >= c.maxAttempts {
			return false, nil
		}
		log.Debugf("%s: retrying in %s (attempt %d/%d)", method, backoff, attempt, c.maxAttempts)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return false, err
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
		return true, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: http status=%d", ErrRPCError, resp.StatusCode)
			more, err := retry(attempt)
			if err != nil {
				return err
			}
			if !more {
				return lastErr
			}
			continue
		}

		var rr rpcResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			lastErr = fmt.Errorf("decode rpc response: %w", err)
			more, err := retry(attempt)
			if err != nil {
				return err
			}
			if !more {
				return lastErr
			}
			continue
		}
		if rr.Error != nil {
			lastErr = &RPCError{Code: rr.Error.Code, Message: rr.Error.Message}
			if !isRateLimitedRPCError(rr.Error.Code, rr.Error.Message) {
				return lastErr
			}
			more, err := retry(attempt)
			if err != nil {
				return err
			}
			if !more {
				return lastErr
			}
			continue
		}
		if out == nil {
			return nil
		}
		if len(rr.Result) == 0 {
			return fmt.Errorf("%w: empty result", ErrRPCError)
		}
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("%w: no response", ErrRPCError)
}

func (c *Client) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	var out [32]byte
	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	// Use finalized to avoid "Blockhash not found" when talking to load-balanced public RPCs.
	if err := c.rpcCall(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "finalized"}}, &resp); err != nil {
		return out, err
	}

	bh, err := solana.ParsePubkey(resp.Value.Blockhash)
	if err != nil {
		return out, fmt.Errorf("invalid blockhash: %w", err)
	}
	copy(out[:], bh[:])
	return out, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx []byte, skipPreflight bool) (string, error) {
	if len(tx) == 0 {
		return "", errors.New("empty tx")
	}
	b64 := base64.StdEncoding.EncodeToString(tx)
	var resp string
	params := []any{
		b64,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       skipPreflight,
			"preflightCommitment": "confirmed",
		},
	}
	if err := c.rpcCall(ctx, "sendTransaction", params, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// AccountDataBase64 returns the raw data of pubkey, or ErrAccountNotFound.
func (c *Client) AccountDataBase64(ctx context.Context, pubkey string) ([]byte, error) {
	var resp struct {
		Value *struct {
			Data []any `json:"data"`
		} `json:"value"`
	}
	params := []any{
		pubkey,
		map[string]any{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}
	if err := c.rpcCall(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	if len(resp.Value.Data) < 1 {
		return nil, errors.New("account missing data")
	}
	s, ok := resp.Value.Data[0].(string)
	if !ok {
		return nil, errors.New("unexpected account data encoding")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AddressLookupTable fetches and decodes a lookup table account.
func (c *Client) AddressLookupTable(ctx context.Context, table solana.Pubkey) (solana.AddressLookupTableState, error) {
	raw, err := c.AccountDataBase64(ctx, table.Base58())
	if err != nil {
		return solana.AddressLookupTableState{}, err
	}
	state, err := solana.ParseAddressLookupTableState(raw)
	if err != nil {
		return solana.AddressLookupTableState{}, fmt.Errorf("parse address lookup table %s: %w", table, err)
	}
	return state, nil
}

func (c *Client) Slot(ctx context.Context) (uint64, error) {
	var resp uint64
	if err := c.rpcCall(ctx, "getSlot", []any{map[string]any{"commitment": "finalized"}}, &resp); err != nil {
		return 0, err
	}
	return resp, nil
}

// BalanceLamports returns the processed balance of account.
func (c *Client) BalanceLamports(ctx context.Context, account solana.Pubkey) (uint64, error) {
	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := c.rpcCall(ctx, "getBalance", []any{account.Base58(), map[string]any{"commitment": "processed"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// RequestAirdrop asks a faucet-enabled cluster (devnet, testnet, a local
// validator) to fund account and returns the airdrop signature.
func (c *Client) RequestAirdrop(ctx context.Context, account solana.Pubkey, lamports uint64) (string, error) {
	if lamports == 0 {
		return "", errors.New("lamports required")
	}
	var sig string
	params := []any{account.Base58(), lamports, map[string]any{"commitment": "confirmed"}}
	if err := c.rpcCall(ctx, "requestAirdrop", params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

// FeeForMessage asks the node what it would charge for message (the
// serialized message, no signatures). A nil value means the blockhash inside
// message has expired.
func (c *Client) FeeForMessage(ctx context.Context, message []byte) (uint64, error) {
	if len(message) == 0 {
		return 0, errors.New("empty message")
	}
	var resp struct {
		Value *uint64 `json:"value"`
	}
	params := []any{
		base64.StdEncoding.EncodeToString(message),
		map[string]any{"commitment": "confirmed"},
	}
	if err := c.rpcCall(ctx, "getFeeForMessage", params, &resp); err != nil {
		return 0, err
	}
	if resp.Value == nil {
		return 0, fmt.Errorf("%w: fee unavailable (blockhash expired)", ErrRPCError)
	}
	return *resp.Value, nil
}

type PrioritizationFee struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

// RecentPrioritizationFees returns per-slot minimum priority fees (micro-lamports
// per compute unit) paid by transactions that write-locked all of accounts.
func (c *Client) RecentPrioritizationFees(ctx context.Context, accounts []solana.Pubkey) ([]PrioritizationFee, error) {
	keys := make([]string, len(accounts))
	for i, pk := range accounts {
		keys[i] = pk.Base58()
	}
	var resp []PrioritizationFee
	if err := c.rpcCall(ctx, "getRecentPrioritizationFees", []any{keys}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type SignatureStatus struct {
	Slot               uint64  `json:"slot"`
	Confirmations      *uint64 `json:"confirmations"`
	Err                any     `json:"err"`
	ConfirmationStatus string  `json:"confirmationStatus"`
}

// Confirmed reports whether the status reached confirmed or finalized.
func (s SignatureStatus) Confirmed() bool {
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// SignatureStatuses returns one entry per signature; unknown signatures are nil.
func (c *Client) SignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	if len(signatures) == 0 {
		return nil, errors.New("signatures required")
	}
	var resp struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{
		signatures,
		map[string]any{"searchTransactionHistory": false},
	}
	if err := c.rpcCall(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Value) != len(signatures) {
		return nil, fmt.Errorf("%w: %d statuses for %d signatures", ErrRPCError, len(resp.Value), len(signatures))
	}
	return resp.Value, nil
}

// WaitForConfirmation polls until signature is confirmed, fails on-chain, or
// ctx is done.
func (c *Client) WaitForConfirmation(ctx context.Context, signature string, poll time.Duration) (SignatureStatus, error) {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	for {
		statuses, err := c.SignatureStatuses(ctx, []string{signature})
		if err != nil {
			return SignatureStatus{}, err
		}
		if st := statuses[0]; st != nil {
			if st.Err != nil {
				return *st, fmt.Errorf("%w: %s: %v", ErrTransactionError, signature, st.Err)
			}
			if st.Confirmed() {
				return *st, nil
			}
		}
		if err := sleepWithContext(ctx, poll); err != nil {
			return SignatureStatus{}, err
		}
	}
}

// TransactionBytesBase64 fetches the wire bytes of a confirmed transaction.
func (c *Client) TransactionBytesBase64(ctx context.Context, signature string) ([]byte, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, errors.New("signature required")
	}

	var resp struct {
		Transaction []any `json:"transaction"`
	}
	params := []any{
		signature,
		map[string]any{
			"encoding":                       "base64",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}
	if err := c.rpcCall(ctx, "getTransaction", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Transaction) < 1 {
		return nil, errors.New("missing transaction in getTransaction response")
	}
	b64, ok := resp.Transaction[0].(string)
	if !ok || strings.TrimSpace(b64) == "" {
		return nil, errors.New("unexpected getTransaction encoding")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
