package chainverify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 6
	DefaultRetryDelay  = 2 * time.Second
)

// Request describes one verification: the claimed signature and the
// facts the transaction must match. ExpectedLamports comes from the
// payment record, never from the client.
type Request struct {
	Signature        string
	Reference        string
	Recipient        string
	ExpectedLamports int64
}

// Outcome is the terminal result of a verification. Verified=false
// always carries a human-readable FailureReason.
type Outcome struct {
	Verified         bool
	FailureReason    string
	ObservedLamports int64
}

type Verifier struct {
	rpc         RPCClient
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

func NewVerifier(rpc RPCClient, maxAttempts int, retryDelay time.Duration, l *zap.Logger) *Verifier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Verifier{rpc: rpc, maxAttempts: maxAttempts, retryDelay: retryDelay, logger: l}
}

// Verify polls the chain for the transaction and checks memo, recipient
// and balance delta. The retry budget is finite: a transaction that never
// appears yields a failed Outcome, not an indefinite wait. The only error
// return is context cancellation, which callers may retry.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Outcome, error) {
	known, err := v.rpc.GetSignatureStatus(ctx, req.Signature)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		v.logger.Warn("Signature status lookup failed, continuing to poll",
			zap.String("signature", req.Signature), zap.Error(err))
	} else if !known {
		v.logger.Info("Signature not yet known to cluster",
			zap.String("signature", req.Signature))
	}

	parsed, err := v.waitForTransaction(ctx, req.Signature)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return &Outcome{
			Verified:      false,
			FailureReason: fmt.Sprintf("Transaction not found on chain after %d attempts.", v.maxAttempts),
		}, nil
	}

	if !v.matchMemo(parsed.Instructions, req.Reference) {
		return &Outcome{Verified: false, FailureReason: "Memo reference not present or mismatch."}, nil
	}

	recipientIndex := -1
	for i, key := range parsed.AccountKeys {
		if key == req.Recipient {
			recipientIndex = i
			break
		}
	}
	if recipientIndex == -1 || recipientIndex >= len(parsed.PreBalances) || recipientIndex >= len(parsed.PostBalances) {
		return &Outcome{Verified: false, FailureReason: "Recipient not present in transaction accounts."}, nil
	}

	delta := parsed.PostBalances[recipientIndex] - parsed.PreBalances[recipientIndex]
	if delta < req.ExpectedLamports {
		return &Outcome{
			Verified:         false,
			FailureReason:    fmt.Sprintf("Recipient received %d lamports but expected %d.", delta, req.ExpectedLamports),
			ObservedLamports: delta,
		}, nil
	}

	v.logger.Info("On-chain payment verified",
		zap.String("signature", req.Signature),
		zap.Int64("observed_lamports", delta),
		zap.Int64("expected_lamports", req.ExpectedLamports))
	return &Outcome{Verified: true, ObservedLamports: delta}, nil
}

func (v *Verifier) waitForTransaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		parsed, err := v.rpc.GetParsedTransaction(ctx, signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			v.logger.Warn("Failed to fetch parsed transaction",
				zap.String("signature", signature),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else if parsed != nil {
			return parsed, nil
		} else {
			v.logger.Info("Transaction not found yet, retrying",
				zap.String("signature", signature),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", v.maxAttempts))
		}

		if attempt == v.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.retryDelay):
		}
	}
	return nil, nil
}

func (v *Verifier) matchMemo(instructions []Instruction, reference string) bool {
	for _, ins := range instructions {
		if !ins.isMemo() {
			continue
		}
		res := DecodeMemo(ins)
		switch res.Kind {
		case MemoFound:
			v.logger.Debug("Decoded memo instruction",
				zap.String("memo", res.Text),
				zap.String("expected", reference))
			if res.Text == reference {
				return true
			}
		case MemoDecodeError:
			v.logger.Warn("Failed to decode memo instruction", zap.Error(res.Err))
		case MemoNotFound:
		}
	}
	return false
}
