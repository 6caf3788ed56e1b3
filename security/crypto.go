package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"artmux/portfolio-api/model"

	"github.com/spf13/viper"
)

// AES-256-CTR encryption for social media credentials at rest. Every access
// row carries its own random salt; the per-row key is derived from that salt
// and the process-wide crypto secret.

// CreateKey derives the 32-byte cipher key for one access row
func CreateKey(salt string) []byte {
	sum := sha256.Sum256([]byte(salt + viper.GetString("crypto.secret")))
	return sum[:]
}

// NewSalt returns a fresh random salt, base64 encoded for storage
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func Encrypt(plaintext string, key []byte) (model.CipherText, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return model.CipherText{}, fmt.Errorf("failed to create cipher, %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return model.CipherText{}, fmt.Errorf("failed to generate iv, %w", err)
	}

	out := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(out, []byte(plaintext))

	return model.CipherText{
		IV:      hex.EncodeToString(iv),
		Content: hex.EncodeToString(out),
	}, nil
}

func Decrypt(ct model.CipherText, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher, %w", err)
	}

	iv, err := hex.DecodeString(ct.IV)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("malformed iv")
	}

	content, err := hex.DecodeString(ct.Content)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext")
	}

	out := make([]byte, len(content))
	cipher.NewCTR(block, iv).XORKeyStream(out, content)

	return string(out), nil
}
