package adminauth

import "context"

// AdminCredential is a profile-store record keyed by email. Read-only from the
// console's perspective; there is no self-service rotation.
type AdminCredential struct {
	Email    string `dynamodbav:"email"`
	Password string `dynamodbav:"password"`
	Name     string `dynamodbav:"name"`
}

// CredentialStore looks up administrator credentials by email.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*AdminCredential, bool, error)
}

// MemoryStore is an in-memory CredentialStore for tests and local runs.
type MemoryStore struct {
	creds map[string]AdminCredential
}

// NewMemoryStore creates a store seeded with the given credentials.
func NewMemoryStore(creds ...AdminCredential) *MemoryStore {
	store := &MemoryStore{creds: make(map[string]AdminCredential)}
	for _, cred := range creds {
		store.creds[cred.Email] = cred
	}
	return store
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*AdminCredential, bool, error) {
	cred, found := s.creds[email]
	if !found {
		return nil, false, nil
	}
	return &cred, true, nil
}
