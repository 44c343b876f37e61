package chainverify

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/mr-tron/base58"
)

type MemoKind int

const (
	// MemoFound means memo text was decoded successfully.
	MemoFound MemoKind = iota
	// MemoNotFound means the instruction carries no decodable memo payload.
	MemoNotFound
	// MemoDecodeError means a payload was present but could not be decoded.
	MemoDecodeError
)

// MemoResult is the outcome of decoding one memo instruction. Modeling
// the three cases explicitly keeps the matching logic exhaustive instead
// of a chain of nil checks.
type MemoResult struct {
	Kind MemoKind
	Text string
	Err  error
}

// DecodeMemo extracts the memo text from a memo instruction. The node
// returns one of three shapes: inline parsed text, an object with a
// "memo" field, or base58-encoded raw bytes in Data.
func DecodeMemo(ins Instruction) MemoResult {
	if len(ins.Parsed) > 0 {
		var text string
		if err := json.Unmarshal(ins.Parsed, &text); err == nil {
			return MemoResult{Kind: MemoFound, Text: text}
		}
		var obj struct {
			Memo string `json:"memo"`
		}
		if err := json.Unmarshal(ins.Parsed, &obj); err == nil && obj.Memo != "" {
			return MemoResult{Kind: MemoFound, Text: obj.Memo}
		}
	}

	if ins.Data != "" {
		raw, err := base58.Decode(ins.Data)
		if err != nil {
			return MemoResult{Kind: MemoDecodeError, Err: fmt.Errorf("failed to decode memo data: %w", err)}
		}
		if !utf8.Valid(raw) {
			return MemoResult{Kind: MemoDecodeError, Err: fmt.Errorf("memo data is not valid utf-8")}
		}
		return MemoResult{Kind: MemoFound, Text: string(raw)}
	}

	return MemoResult{Kind: MemoNotFound}
}
