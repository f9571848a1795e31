package game

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// NewRoomCode returns a random six character code over A-Z0-9.
func NewRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	out := make([]byte, 0, roomCodeLength)
	// 252 is the largest multiple of 36 below 256; rejecting bytes above it
	// keeps every symbol equally likely.
	for len(out) < roomCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("%w: read random: %w", ErrUnavailable, err)
		}
		for _, b := range buf {
			if int(b) >= 252 {
				continue
			}
			out = append(out, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
			if len(out) == roomCodeLength {
				break
			}
		}
	}
	return string(out), nil
}

// NormalizeRoomCode upper-cases and trims a user-entered code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidRoomCode(code string) bool {
	if len(code) != roomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(roomCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
