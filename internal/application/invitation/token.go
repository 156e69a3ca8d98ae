package invitation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes entropía del secreto del enlace (256 bits).
const tokenBytes = 32

// NewToken genera el secreto opaco de una invitación: 32 bytes aleatorios en hex.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generar token de invitación: %w", err)
	}
	return hex.EncodeToString(b), nil
}
