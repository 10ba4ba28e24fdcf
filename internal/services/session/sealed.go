package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Sealed encrypts sessions before they reach the wrapped store, so tokens
// are never at rest in clear text. Each ciphertext is bound to its slot.
type Sealed struct {
	inner Store
	key   []byte
}

func NewSealed(inner Store, secret string) (*Sealed, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("ticket-portal sessions")), key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return &Sealed{inner: inner, key: key}, nil
}

func (s *Sealed) Load(ctx context.Context, sid string, ns Namespace) ([]byte, error) {
	raw, err := s.inner.Load(ctx, sid, ns)
	if err != nil {
		return nil, err
	}
	sealed, err := base64.RawStdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decode sealed session: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed session too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	data, err := aead.Open(nil, nonce, ciphertext, []byte(slot(sid, ns)))
	if err != nil {
		return nil, fmt.Errorf("open sealed session: %w", err)
	}
	return data, nil
}

func (s *Sealed) Save(ctx context.Context, sid string, ns Namespace, data []byte, ttl time.Duration) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(data)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, data, []byte(slot(sid, ns)))
	return s.inner.Save(ctx, sid, ns, []byte(base64.RawStdEncoding.EncodeToString(sealed)), ttl)
}

func (s *Sealed) Delete(ctx context.Context, sid string, ns Namespace) error {
	return s.inner.Delete(ctx, sid, ns)
}
