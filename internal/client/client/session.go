package client

import (
	"strings"

	"github.com/dmitrijs2005/alumnikeeper/internal/filex"
)

// SessionStore keeps the session token in a file.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) Path() string { return s.path }

func (s *SessionStore) Save(token string) error {
	return filex.WriteSecret(s.path, []byte(token+"\n"))
}

// Load returns the saved token or ErrNotLoggedIn.
func (s *SessionStore) Load() (string, error) {
	data, err := filex.ReadOptional(s.path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (s *SessionStore) Clear() error {
	return filex.RemoveIfExists(s.path)
}
