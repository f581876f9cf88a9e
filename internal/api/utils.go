package api

import (
	"crypto/rand"
	"encoding/base64"
)

func generateRandomString(length int) string {
	// base64 grows input by 4/3, so length input bytes always cover length chars
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	encoded := base64.RawURLEncoding.EncodeToString(b)
	return encoded[:length]
}
