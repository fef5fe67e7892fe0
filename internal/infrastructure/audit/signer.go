// Package audit implements the tamper-evident audit trail: HMAC signing of
// records, the append-only Postgres store, and the optional Kafka fan-out
// for downstream SIEM consumers. Records reach this package already reduced
// to post-redaction facts; nothing here ever sees raw input text.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// Signer computes and verifies HMAC-SHA256 signatures over the canonical
// form of an audit record.
type Signer struct {
	key []byte
}

// NewSigner creates a signer for the given key. The key typically comes from
// the secrets provider at startup.
func NewSigner(key []byte) (*Signer, *errors.AppError) {
	if len(key) == 0 {
		return nil, errors.ErrConfiguration.WithDescription("audit signing key must not be empty")
	}
	return &Signer{key: key}, nil
}

// Sign returns the base64 signature over the record's signing payload. The
// record's Signature field is not read, so signing is idempotent.
func (s *Signer) Sign(record *models.AuditRecord) (string, *errors.AppError) {
	payload, err := record.SigningPayload()
	if err != nil {
		return "", errors.ErrInternal.WithError(err)
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares it in constant time.
func (s *Signer) Verify(record *models.AuditRecord) (bool, *errors.AppError) {
	want, appErr := s.Sign(record)
	if appErr != nil {
		return false, appErr
	}
	return hmac.Equal([]byte(record.Signature), []byte(want)), nil
}
