package util

import (
	"crypto/rand"
	"log"
)

// Alphabet for human-shareable ids. Drops 0/O/1/I to avoid transcription
// mistakes over chat and email.
const shortIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomShortCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to read random bytes: %v", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = shortIDAlphabet[int(b)%len(shortIDAlphabet)]
	}
	return string(out)
}

// GenerateOrderID returns an id like "MC-7KQ2ZP".
func GenerateOrderID() string {
	return "MC-" + randomShortCode(6)
}

// GenerateTicketID returns an id like "TK-N4WX8R".
func GenerateTicketID() string {
	return "TK-" + randomShortCode(6)
}
