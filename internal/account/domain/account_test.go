package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateOfBirth(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name  string
		value string
		want  time.Time
		err   bool
	}{
		{"date", "2000-01-01", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2000-01-01T10:30:00Z", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"padded", " 1999-12-31 ", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday", time.Time{}, true},
		{"future", "2030-01-01", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDateOfBirth(tc.value, now)
			if tc.err {
				if !errors.Is(err, ErrInvalidDateOfBirth) {
					t.Fatalf("want ErrInvalidDateOfBirth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateOfBirth: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAccount_Validate(t *testing.T) {
	dob := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := (&Account{Email: "a@x.com", Name: "Ann", DateOfBirth: dob}).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := (&Account{Email: "a@x.com", DateOfBirth: dob}).Validate(); !errors.Is(err, ErrNameRequired) {
		t.Errorf("missing name: %v", err)
	}
	if err := (&Account{Name: "Ann", DateOfBirth: dob}).Validate(); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("missing email: %v", err)
	}
	if err := (&Account{Email: "a@x.com", Name: "Ann"}).Validate(); !errors.Is(err, ErrInvalidDateOfBirth) {
		t.Errorf("missing dob: %v", err)
	}
}
