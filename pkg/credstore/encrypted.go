package credstore

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
)

// EncryptedStore seals every session field before handing it to a Backend.
// Each value is bound to its namespace and key, so values cannot be swapped
// between fields or namespaces without failing authentication.
type EncryptedStore struct {
	backend   Backend
	cipher    *cryptox.Cipher
	namespace string
}

// NewEncryptedStore wraps backend. The namespace isolates this client's keys
// from anything else sharing the backend.
func NewEncryptedStore(backend Backend, c *cryptox.Cipher, namespace string) *EncryptedStore {
	return &EncryptedStore{
		backend:   backend,
		cipher:    c,
		namespace: namespace,
	}
}

func (e *EncryptedStore) Get(ctx context.Context) (Session, error) {
	raw, err := e.backend.Load(ctx, e.namespace)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	fields := make(map[string]string, len(raw))
	for key, sealed := range raw {
		plain, err := e.cipher.Open(sealed, e.additionalData(key))
		if err != nil {
			return Session{}, fmt.Errorf("failed to open %q: %w", key, err)
		}
		fields[key] = string(plain)
	}

	return sessionFromFields(fields), nil
}

func (e *EncryptedStore) Set(ctx context.Context, s Session) error {
	fields := s.toFields()
	sealed := make(map[string][]byte, len(fields))
	for key, value := range fields {
		out, err := e.cipher.Seal([]byte(value), e.additionalData(key))
		if err != nil {
			return fmt.Errorf("failed to seal %q: %w", key, err)
		}
		sealed[key] = out
	}

	if err := e.backend.Replace(ctx, e.namespace, sealed); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (e *EncryptedStore) Clear(ctx context.Context) error {
	if err := e.backend.Delete(ctx, e.namespace, Fields...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (e *EncryptedStore) additionalData(key string) []byte {
	return []byte(e.namespace + "/" + key)
}
