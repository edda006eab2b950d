package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"confmatch/pkg/logger"
)

type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SaveFile writes the current token pair to path (mode 0600) so a later
// process can resume the session.
func (s *Session) SaveFile(path string) error {
	s.mu.RLock()
	tf := tokenFile{AccessToken: s.access, RefreshToken: s.refresh}
	active := s.active
	s.mu.RUnlock()
	if !active {
		return ErrNotAuthenticated
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(tf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadFile resumes a session from a token file written by SaveFile.
func (s *Session) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return err
	}
	if err := s.Begin(tf.AccessToken, tf.RefreshToken); err != nil {
		return err
	}
	logger.Debug("session_resumed", "path", path)
	return nil
}

// RemoveFile deletes a persisted token file. Missing files are fine.
func RemoveFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
