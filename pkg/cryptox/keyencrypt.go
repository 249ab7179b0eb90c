package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt is returned when a sealed value cannot be opened, either because
// it was produced under another key or because it was modified.
var ErrDecrypt = errors.New("cryptox: decryption failed")

// Cipher seals and opens small values (credentials, tokens) with AES-256-GCM.
// The AES key is derived with HKDF-SHA256 from caller supplied key material
// and a context label, so one master secret can protect several namespaces
// without the ciphertexts being interchangeable.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte key from keyMaterial bound to label.
func NewCipher(keyMaterial []byte, label string) (*Cipher, error) {
	if len(keyMaterial) == 0 {
		return nil, fmt.Errorf("cryptox: empty key material")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, keyMaterial, nil, []byte("fleetadmin/"+label))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// GCM gives us authentication on top of confidentiality
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: gcm}, nil
}

// NewCipherFromFile reads key material from path and derives a Cipher from it.
func NewCipherFromFile(path, label string) (*Cipher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return NewCipher(data, label)
}

// Seal encrypts plaintext. The output format is:
// [12-byte nonce][encrypted data][16-byte auth tag]
//
// additionalData is authenticated but not encrypted; callers bind the storage
// key here so a value copied under another key fails to open.
func (c *Cipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal with the same additionalData.
func (c *Cipher) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return plaintext, nil
}
