package migrate

import (
	"errors"
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up"); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("Run(\"\") = %v, want ErrEmptyDSN", err)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "sideways", "UP", "Down"} {
		t.Run(direction, func(t *testing.T) {
			err := Run("postgres://localhost/test", direction)
			if err == nil || !strings.Contains(err.Error(), "direction") {
				t.Errorf("Run(%q) = %v, want direction error", direction, err)
			}
		})
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "://localhost/test", "postgres://localhost with spaces/test"} {
		t.Run(dsn, func(t *testing.T) {
			err := Run(dsn, "up")
			if err == nil {
				t.Fatalf("Run(%q) should fail", dsn)
			}
			if errors.Is(err, ErrNoChange) {
				t.Error("Run must not surface ErrNoChange")
			}
		})
	}
}

func TestSteps_Zero(t *testing.T) {
	if err := Steps("postgres://localhost/test", 0); err == nil {
		t.Fatal("Steps(0) should fail")
	}
}

func TestVersion_EmptyDSN(t *testing.T) {
	if _, _, err := Version(""); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("Version(\"\") = %v, want ErrEmptyDSN", err)
	}
}
