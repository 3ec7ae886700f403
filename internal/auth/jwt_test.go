package auth

import (
	"testing"
	"time"
)

func TestIssueAndValidateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	tok, err := svc.IssueAccessToken("usr_1")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	claims, err := svc.ValidateAccessToken(tok.Token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != "usr_1" {
		t.Fatalf("UserID = %q, want %q", claims.UserID, "usr_1")
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestValidateAccessTokenRejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	tok, err := svc.IssueAccessToken("usr_1")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	other := NewJWTService("other-secret", time.Hour)
	if _, err := other.ValidateAccessToken(tok.Token); err == nil {
		t.Fatal("expected wrong secret to fail")
	}

	expired := NewJWTService("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.ValidateAccessToken(tok.Token); err == nil {
		t.Fatal("expected expired token to fail")
	}

	if _, err := svc.ValidateAccessToken("garbage"); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}
