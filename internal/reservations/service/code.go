package service

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	confirmationCodeLength = 8
	// Crockford-style alphabet without 0/O and 1/I; 32 symbols so a byte
	// modulo the length carries no bias.
	confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 5
)

// newConfirmationCode draws an opaque code from the random bits of a v4 UUID.
// Only the low five bits of bytes 8..15 are used; none of them carry the
// version or variant markers.
func newConfirmationCode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	code := make([]byte, confirmationCodeLength)
	for i := range code {
		code[i] = confirmationAlphabet[int(id[8+i])%len(confirmationAlphabet)]
	}
	return string(code), nil
}
