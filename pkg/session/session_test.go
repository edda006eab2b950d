package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestBeginDerivesIdentity(t *testing.T) {
	s := New()
	access := token(t, jwt.MapClaims{
		"user_id": "u1",
		"email":   "ME@Conf.org",
		"name":    "Me",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if err := s.Begin(access, "r1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	id := s.Identity()
	if id.ID != "u1" || id.Email != "me@conf.org" || id.Name != "Me" {
		t.Fatalf("identity wrong: %+v", id)
	}
	if !s.Authenticated() {
		t.Fatalf("expected active session")
	}
	if s.ExpiresSoon(time.Minute) {
		t.Fatalf("token is fresh")
	}
	if s.ExpiresSoon(2 * time.Hour) == false {
		t.Fatalf("token expires within two hours")
	}
}

func TestBeginFallsBackToSubject(t *testing.T) {
	s := New()
	access := token(t, jwt.MapClaims{"sub": "u7", "email": "x@conf.org"})
	if err := s.Begin(access, ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Identity().ID != "u7" {
		t.Fatalf("sub fallback broken: %+v", s.Identity())
	}
}

func TestBeginRejectsGarbage(t *testing.T) {
	s := New()
	if err := s.Begin("not-a-jwt", ""); err == nil {
		t.Fatalf("expected parse error")
	}
	if s.Authenticated() {
		t.Fatalf("failed begin must not activate the session")
	}
}

func TestRotateKeepsRefreshWhenOmitted(t *testing.T) {
	s := New()
	first := token(t, jwt.MapClaims{"user_id": "u1", "email": "a@conf.org"})
	second := token(t, jwt.MapClaims{"user_id": "u1", "email": "a@conf.org", "exp": time.Now().Add(time.Hour).Unix()})

	if err := s.Begin(first, "r1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Rotate(second, ""); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	rt, err := s.RefreshToken()
	if err != nil || rt != "r1" {
		t.Fatalf("refresh token lost on rotate: %q %v", rt, err)
	}
}

func TestEndTearsDown(t *testing.T) {
	s := New()
	access := token(t, jwt.MapClaims{"user_id": "u1", "email": "a@conf.org"})
	_ = s.Begin(access, "r1")
	s.End()
	if s.Authenticated() {
		t.Fatalf("session still active after End")
	}
	if _, err := s.AccessToken(); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	s := New()
	access := token(t, jwt.MapClaims{"user_id": "u1", "email": "a@conf.org"})
	if err := s.Begin(access, "r1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	resumed := New()
	if err := resumed.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if resumed.Identity().ID != "u1" {
		t.Fatalf("resumed identity wrong: %+v", resumed.Identity())
	}
	rt, _ := resumed.RefreshToken()
	if rt != "r1" {
		t.Fatalf("refresh token not persisted")
	}

	if err := RemoveFile(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveFile(path); err != nil {
		t.Fatalf("removing a missing file should be fine: %v", err)
	}
}

func TestSaveFileRequiresSession(t *testing.T) {
	s := New()
	if err := s.SaveFile(filepath.Join(t.TempDir(), "s.json")); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
