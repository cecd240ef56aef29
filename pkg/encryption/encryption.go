// Package encryption provides AES-GCM encryption for access tokens at rest.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

const keySize = 32

var ErrKeyMissing = errors.New("ENCRYPTION_KEY environment variable not set")

// Codec encrypts and decrypts strings with a fixed 32-byte key.
type Codec struct {
	key []byte
}

// New creates a Codec. The key must be exactly 32 bytes.
func New(key string) (*Codec, error) {
	if len(key) != keySize {
		return nil, errors.New("encryption key must be exactly 32 bytes long")
	}

	return &Codec{key: []byte(key)}, nil
}

// FromEnv creates a Codec from the ENCRYPTION_KEY environment variable.
func FromEnv() (*Codec, error) {
	key := os.Getenv("ENCRYPTION_KEY")
	if key == "" {
		return nil, ErrKeyMissing
	}

	return New(key)
}

// Encrypt returns a base64 encoded string containing the nonce and ciphertext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64 encoded string produced by Encrypt.
func (c *Codec) Decrypt(cryptoText string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(cryptoText)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
