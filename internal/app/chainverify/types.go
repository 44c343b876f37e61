package chainverify

import (
	"context"
	"encoding/json"
)

// MemoProgramID is the on-chain address of the SPL memo program.
const MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

// RPCClient is the injected chain capability. Implementations talk to a
// real RPC node; tests supply fakes.
type RPCClient interface {
	// GetSignatureStatus reports whether the signature is known to the
	// cluster at all.
	GetSignatureStatus(ctx context.Context, signature string) (bool, error)
	// GetParsedTransaction fetches the full parsed transaction, or nil
	// if it is not yet available.
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)
}

// Instruction is one instruction of a parsed transaction. Parsed carries
// whatever shape the node returned (a JSON string for inline memo text
// or an object with a "memo" field); Data is base58-encoded raw bytes.
type Instruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed,omitempty"`
	Data      string          `json:"data,omitempty"`
}

// ParsedTransaction is the subset of a parsed transaction the verifier
// needs: the instruction list, the flat account list, and the pre/post
// balances aligned with it.
type ParsedTransaction struct {
	Instructions []Instruction
	AccountKeys  []string
	PreBalances  []int64
	PostBalances []int64
}

func (ins Instruction) isMemo() bool {
	return ins.Program == "spl-memo" || ins.ProgramID == MemoProgramID
}
