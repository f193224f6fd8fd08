package security

import (
	"strings"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	for name, build := range map[string]func() (*TokenProvider, error){
		"rs256": NewTestTokenProvider,
		"hs256": NewTestHMACTokenProvider,
	} {
		t.Run(name, func(t *testing.T) {
			p, err := build()
			if err != nil {
				t.Fatalf("build provider: %v", err)
			}
			token, exp, err := p.Issue("acc-1", "ann@example.com")
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if token == "" {
				t.Fatal("token empty")
			}
			if exp.Before(time.Now()) {
				t.Fatal("expires at in the past")
			}

			s, err := p.Validate(token)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if s.AccountID != "acc-1" || s.Email != "ann@example.com" {
				t.Errorf("Validate: got account=%q email=%q", s.AccountID, s.Email)
			}
			if s.TokenID == "" {
				t.Error("TokenID should be set")
			}
			if !s.ExpiresAt.Equal(exp.Truncate(time.Second)) {
				t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, exp.Truncate(time.Second))
			}
		})
	}
}

func TestTokenProvider_SevenDayLifetime(t *testing.T) {
	p, err := NewTestHMACTokenProvider()
	if err != nil {
		t.Fatalf("NewTestHMACTokenProvider: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.WithClock(func() time.Time { return now })

	_, exp, err := p.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(7 * 24 * time.Hour); !exp.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", exp, want)
	}
	if p.TTL() != 7*24*time.Hour {
		t.Errorf("TTL = %v, want 168h", p.TTL())
	}
}

func TestTokenProvider_Expired(t *testing.T) {
	p, err := NewTestHMACTokenProvider()
	if err != nil {
		t.Fatalf("NewTestHMACTokenProvider: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.WithClock(func() time.Time { return now })
	token, _, err := p.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	p.WithClock(func() time.Time { return now.Add(7*24*time.Hour + time.Minute) })
	if _, err := p.Validate(token); err != ErrTokenExpired {
		t.Errorf("Validate expired: want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_Tampered(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := p.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}
	// Flip the last signature character.
	sig := []byte(parts[2])
	if sig[len(sig)-1] == 'A' {
		sig[len(sig)-1] = 'B'
	} else {
		sig[len(sig)-1] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)
	if _, err := p.Validate(tampered); err != ErrInvalidToken {
		t.Errorf("Validate tampered: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongSecret(t *testing.T) {
	a, _ := NewHMACTokenProvider([]byte("secret-a"), "test-issuer", "test-audience", time.Hour)
	b, _ := NewHMACTokenProvider([]byte("secret-b"), "test-issuer", "test-audience", time.Hour)
	token, _, err := a.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate with other secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongAudienceOrIssuer(t *testing.T) {
	secret := []byte("shared")
	issuer, _ := NewHMACTokenProvider(secret, "test-issuer", "test-audience", time.Hour)
	token, _, err := issuer.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	otherAud, _ := NewHMACTokenProvider(secret, "test-issuer", "other-audience", time.Hour)
	if _, err := otherAud.Validate(token); err != ErrInvalidToken {
		t.Errorf("wrong audience: want ErrInvalidToken, got %v", err)
	}
	otherIss, _ := NewHMACTokenProvider(secret, "other-issuer", "test-audience", time.Hour)
	if _, err := otherIss.Validate(token); err != ErrInvalidToken {
		t.Errorf("wrong issuer: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_AlgorithmMismatch(t *testing.T) {
	rs, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	hs, err := NewTestHMACTokenProvider()
	if err != nil {
		t.Fatalf("NewTestHMACTokenProvider: %v", err)
	}
	token, _, err := hs.Issue("acc-1", "ann@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := rs.Validate(token); err != ErrInvalidToken {
		t.Errorf("HS256 token on RS256 provider: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_Malformed(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	for _, tok := range []string{"", "invalid-token", "a.b.c"} {
		if _, err := p.Validate(tok); err != ErrInvalidToken {
			t.Errorf("Validate(%q): want ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestTokenProvider_IssueRequiresAccount(t *testing.T) {
	p, err := NewTestHMACTokenProvider()
	if err != nil {
		t.Fatalf("NewTestHMACTokenProvider: %v", err)
	}
	if _, _, err := p.Issue("  ", "ann@example.com"); err == nil {
		t.Fatal("Issue with empty account id should fail")
	}
}

func TestNewHMACTokenProvider_EmptySecret(t *testing.T) {
	if _, err := NewHMACTokenProvider(nil, "i", "a", time.Hour); err != ErrInvalidKey {
		t.Errorf("want ErrInvalidKey, got %v", err)
	}
}

func TestNewTokenProvider_NilKeys(t *testing.T) {
	if _, err := NewTokenProvider(nil, nil, "i", "a", time.Hour); err != ErrInvalidKey {
		t.Errorf("want ErrInvalidKey, got %v", err)
	}
}
