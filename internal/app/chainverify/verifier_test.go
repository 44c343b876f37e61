package chainverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRPC struct {
	statusKnown bool
	statusErr   error

	tx        *ParsedTransaction
	txErr     error
	failUntil int
	calls     int
}

func (f *fakeRPC) GetSignatureStatus(ctx context.Context, signature string) (bool, error) {
	return f.statusKnown, f.statusErr
}

func (f *fakeRPC) GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	f.calls++
	if f.txErr != nil {
		return nil, f.txErr
	}
	if f.calls <= f.failUntil {
		return nil, nil
	}
	return f.tx, nil
}

func memoInstruction(text string) Instruction {
	parsed, _ := json.Marshal(text)
	return Instruction{Program: "spl-memo", Parsed: parsed}
}

func paidTransaction(memo, recipient string, pre, post int64) *ParsedTransaction {
	return &ParsedTransaction{
		Instructions: []Instruction{memoInstruction(memo)},
		AccountKeys:  []string{"sender111", recipient},
		PreBalances:  []int64{5_000_000_000, pre},
		PostBalances: []int64{4_000_000_000, post},
	}
}

func newTestVerifier(rpc RPCClient) *Verifier {
	return NewVerifier(rpc, 3, time.Millisecond, zap.NewNop())
}

func TestVerifySuccess(t *testing.T) {
	rpc := &fakeRPC{
		statusKnown: true,
		tx:          paidTransaction("ref-123", "treasury", 0, 1_000_000_000),
	}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.Equal(t, int64(1_000_000_000), outcome.ObservedLamports)
}

func TestVerifyOverpaymentAccepted(t *testing.T) {
	rpc := &fakeRPC{tx: paidTransaction("ref-123", "treasury", 0, 2_000_000_000)}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
}

func TestVerifyMemoMismatch(t *testing.T) {
	rpc := &fakeRPC{tx: paidTransaction("other-ref", "treasury", 0, 1_000_000_000)}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, "Memo reference not present or mismatch.", outcome.FailureReason)
}

func TestVerifyMissingMemoInstruction(t *testing.T) {
	tx := paidTransaction("ref-123", "treasury", 0, 1_000_000_000)
	tx.Instructions = []Instruction{{Program: "system"}}
	v := newTestVerifier(&fakeRPC{tx: tx})

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, "Memo reference not present or mismatch.", outcome.FailureReason)
}

func TestVerifyRecipientAbsent(t *testing.T) {
	rpc := &fakeRPC{tx: paidTransaction("ref-123", "someone-else", 0, 1_000_000_000)}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, "Recipient not present in transaction accounts.", outcome.FailureReason)
}

func TestVerifyUnderpayment(t *testing.T) {
	rpc := &fakeRPC{tx: paidTransaction("ref-123", "treasury", 0, 400_000_000)}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, "Recipient received 400000000 lamports but expected 1000000000.", outcome.FailureReason)
	assert.Equal(t, int64(400_000_000), outcome.ObservedLamports)
}

func TestVerifyRetriesThenFinds(t *testing.T) {
	rpc := &fakeRPC{
		tx:        paidTransaction("ref-123", "treasury", 0, 1_000_000_000),
		failUntil: 2,
	}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        "ref-123",
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.Equal(t, 3, rpc.calls)
}

func TestVerifyRetryBudgetExhausted(t *testing.T) {
	rpc := &fakeRPC{failUntil: 100}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{Signature: "sig"})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, "Transaction not found on chain after 3 attempts.", outcome.FailureReason)
	assert.Equal(t, 3, rpc.calls)
}

func TestVerifyTransientErrorsCountAgainstBudget(t *testing.T) {
	rpc := &fakeRPC{txErr: errors.New("connection reset")}
	v := newTestVerifier(rpc)

	outcome, err := v.Verify(context.Background(), Request{Signature: "sig"})
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, 3, rpc.calls)
}

func TestVerifyContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rpc := &fakeRPC{failUntil: 100}
	v := newTestVerifier(rpc)

	_, err := v.Verify(ctx, Request{Signature: "sig"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeMemoShapes(t *testing.T) {
	t.Run("parsed string", func(t *testing.T) {
		res := DecodeMemo(memoInstruction("hello"))
		require.Equal(t, MemoFound, res.Kind)
		assert.Equal(t, "hello", res.Text)
	})

	t.Run("parsed object", func(t *testing.T) {
		res := DecodeMemo(Instruction{
			Program: "spl-memo",
			Parsed:  json.RawMessage(`{"memo":"hello"}`),
		})
		require.Equal(t, MemoFound, res.Kind)
		assert.Equal(t, "hello", res.Text)
	})

	t.Run("base58 data", func(t *testing.T) {
		res := DecodeMemo(Instruction{
			ProgramID: MemoProgramID,
			Data:      base58.Encode([]byte("hello")),
		})
		require.Equal(t, MemoFound, res.Kind)
		assert.Equal(t, "hello", res.Text)
	})

	t.Run("invalid base58", func(t *testing.T) {
		res := DecodeMemo(Instruction{ProgramID: MemoProgramID, Data: "0OIl"})
		assert.Equal(t, MemoDecodeError, res.Kind)
		assert.Error(t, res.Err)
	})

	t.Run("empty instruction", func(t *testing.T) {
		res := DecodeMemo(Instruction{Program: "spl-memo"})
		assert.Equal(t, MemoNotFound, res.Kind)
	})
}

func TestVerifyMatchesBase58Memo(t *testing.T) {
	ref := fmt.Sprintf("ref-%d", 42)
	tx := &ParsedTransaction{
		Instructions: []Instruction{{
			ProgramID: MemoProgramID,
			Data:      base58.Encode([]byte(ref)),
		}},
		AccountKeys:  []string{"sender111", "treasury"},
		PreBalances:  []int64{2_000_000_000, 0},
		PostBalances: []int64{1_000_000_000, 1_000_000_000},
	}
	v := newTestVerifier(&fakeRPC{tx: tx})

	outcome, err := v.Verify(context.Background(), Request{
		Signature:        "sig",
		Reference:        ref,
		Recipient:        "treasury",
		ExpectedLamports: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
}
