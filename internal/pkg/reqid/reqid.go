// Package reqid generates short, time-sortable request identifiers for
// log correlation across the optimize and comparison endpoints.
package reqid

import (
	crypto_rand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z (62 characters)
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const randomLength = 12

// New returns a request ID of the form "req_<timestamp><random>" where the
// 6-char base62 timestamp prefix keeps IDs lexicographically sortable by
// creation time.
func New() string {
	return "req_" + encodeTimestamp(time.Now().Unix()) + randomBase62(randomLength)
}

// encodeTimestamp encodes a Unix timestamp (seconds) as a 6-character base62
// string. Covers 0 to ~56 billion seconds, far beyond any practical horizon.
func encodeTimestamp(seconds int64) string {
	n := seconds
	result := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		result[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(result)
}

// randomBase62 produces a uniformly distributed base62 string using bit
// extraction with rejection sampling: 6 bits at a time, values >= 62
// rejected so every character is equally likely.
func randomBase62(length int) string {
	bytesNeeded := (length*6)/8 + 4
	bytes := make([]byte, bytesNeeded)
	if _, err := crypto_rand.Read(bytes); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}

	var result strings.Builder
	bitBuffer := uint64(0)
	bitsInBuffer := uint(0)
	byteIndex := 0

	for result.Len() < length {
		for bitsInBuffer < 6 && byteIndex < len(bytes) {
			bitBuffer = (bitBuffer << 8) | uint64(bytes[byteIndex])
			bitsInBuffer += 8
			byteIndex++
		}

		value := (bitBuffer >> (bitsInBuffer - 6)) & 0x3f
		bitsInBuffer -= 6

		if value < 62 {
			result.WriteByte(base62Alphabet[value])
		}

		if byteIndex >= len(bytes) && result.Len() < length {
			if _, err := crypto_rand.Read(bytes); err != nil {
				panic("failed to read random bytes: " + err.Error())
			}
			byteIndex = 0
			bitBuffer = 0
			bitsInBuffer = 0
		}
	}

	return result.String()
}
