package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

func GenerateCode(n int) (string, error) {
	// Make a slice of nBytes random bytes.
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateReference returns a shareable identifier such as "BK-3F9A01C2D4".
func GenerateReference(prefix string) (string, error) {
	code, err := GenerateCode(5)
	if err != nil {
		return "", err
	}
	return prefix + "-" + code, nil
}
