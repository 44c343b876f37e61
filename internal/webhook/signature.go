// Package webhook verifies the processor's v1 webhook signature scheme:
// HMAC-SHA256 over "{timestamp}.{payload}", delivered as
//
//	Stripe-Signature: t={timestamp},v1={signature}
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how stale a signed timestamp may be before the
// delivery is treated as a replay.
const DefaultTolerance = 5 * time.Minute

var (
	ErrInvalidHeader     = errors.New("invalid signature header")
	ErrTimestampTooOld   = errors.New("signed timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// ComputeSignature computes the v1 HMAC-SHA256 signature for a payload
// at a given timestamp.
func ComputeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature header against the raw payload.
// A failure here is a forged or tampered request: the caller must reject
// it with no state change and no retry semantics.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	var timestamp int64 = -1
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrInvalidHeader
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp < 0 || len(candidates) == 0 {
		return ErrInvalidHeader
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return ErrTimestampTooOld
		}
	}

	expected := ComputeSignature(timestamp, payload, secret)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}
