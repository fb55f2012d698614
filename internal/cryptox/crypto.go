// Package cryptox seals small secrets (the persisted bearer token) with a key
// derived from an operator passphrase.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by DeriveKey.
const KeySize = 32

// ErrMalformed is returned by Open when the sealed blob is shorter than a nonce.
var ErrMalformed = errors.New("sealed value is malformed")

// DeriveKey stretches passphrase with argon2id using the given salt.
// Identical inputs always produce the same key.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Sealer encrypts and decrypts values with AES-GCM. The random nonce is
// prepended to the ciphertext, so a sealed value is self-contained.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer for key, which must be 16, 24 or 32 bytes long.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	out := make([]byte, 0, len(nonce)+len(plaintext)+s.aead.Overhead())
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal. A wrong key or tampered input yields an error.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrMalformed
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], nil)
}
