package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// AESSealer implements service.PayloadSealer with AES-256-GCM. The transport
// envelope is base64(nonce || ciphertext) where the ciphertext carries the
// GCM authentication tag.
type AESSealer struct{}

var _ service.PayloadSealer = AESSealer{}

// NewAESSealer creates the default payload sealer.
func NewAESSealer() AESSealer {
	return AESSealer{}
}

// Seal implements service.PayloadSealer. Each call draws a fresh random
// nonce, so sealing the same plaintext twice yields different envelopes.
func (AESSealer) Seal(key []byte, plaintext []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.ErrInternal.WithError(err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open implements service.PayloadSealer. Every failure mode, bad encoding,
// truncated envelope, wrong key, flipped bit, maps to the same rejection so
// a caller probing the endpoint learns nothing about which check tripped.
func (AESSealer) Open(key []byte, envelope string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, errors.ErrDecryptionFailed
	}
	if len(raw) < gcm.NonceSize() {
		return nil, errors.ErrDecryptionFailed
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != constants.SessionKeySize {
		return nil, errors.ErrInternal.WithDescription("session key must be %d bytes", constants.SessionKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.ErrInternal.WithError(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.ErrInternal.WithError(err)
	}
	return gcm, nil
}
