package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(now time.Time) *JWTManager {
	m := NewJWTManager("test-secret", time.Hour, 7*24*time.Hour, 30)
	m.now = func() time.Time { return now }
	return m
}

func TestIssuePairRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	pair, err := m.IssuePair("user-1", "ama@example.com", true, false)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if !pair.AccessExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected access expiry: %s", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected refresh expiry: %s", pair.RefreshExpiresAt)
	}

	claims, err := m.Validate(pair.Access, TokenAccess)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ama@example.com" || !claims.IsStaff {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRememberMeExtendsRefreshOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	pair, err := m.IssuePair("user-1", "ama@example.com", false, true)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if !pair.AccessExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("access expiry should not change, got %s", pair.AccessExpiresAt)
	}
	if want := now.Add(30 * 7 * 24 * time.Hour); !pair.RefreshExpiresAt.Equal(want) {
		t.Fatalf("expected refresh expiry %s, got %s", want, pair.RefreshExpiresAt)
	}
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	m := newTestManager(time.Now())
	pair, err := m.IssuePair("user-1", "ama@example.com", false, false)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := m.Validate(pair.Refresh, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh used as access, got %v", err)
	}
	if _, err := m.Validate(pair.Access, TokenRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access used as refresh, got %v", err)
	}
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(issuedAt)
	pair, err := m.IssuePair("user-1", "ama@example.com", false, false)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := m.Validate(pair.Access, TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other := NewJWTManager("another-secret", time.Hour, time.Hour, 1)
	if _, err := other.Validate(pair.Refresh, TokenRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token signed with another key to fail, got %v", err)
	}

	if _, err := m.Validate("not-a-token", TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage token to fail, got %v", err)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(issuedAt)
	pair, err := m.IssuePair("user-1", "ama@example.com", false, true)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	later := issuedAt.Add(3 * time.Hour)
	m.now = func() time.Time { return later }

	refreshed, err := m.Refresh(pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if refreshed.Refresh != pair.Refresh {
		t.Fatal("expected refresh token to be returned unchanged")
	}
	if !refreshed.AccessExpiresAt.Equal(later.Add(time.Hour)) {
		t.Fatalf("unexpected access expiry: %s", refreshed.AccessExpiresAt)
	}

	claims, err := m.Validate(refreshed.Access, TokenAccess)
	if err != nil {
		t.Fatalf("new access token invalid: %v", err)
	}
	if claims.UserID != "user-1" || !claims.Remember {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := m.Refresh(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to be refused for refresh, got %v", err)
	}
}
