package otp

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != CodeDigits {
			t.Fatalf("len(code) = %d, want %d (%q)", len(code), CodeDigits, code)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("code %q contains non-digits", code)
		}
	}
}

func TestHashCode(t *testing.T) {
	h := HashCode("123456")
	if len(h) != 64 {
		t.Errorf("len(hash) = %d, want 64", len(h))
	}
	if h != HashCode("123456") {
		t.Error("HashCode must be deterministic")
	}
	if h == HashCode("654321") {
		t.Error("different codes must hash differently")
	}
}

func TestCodeEqual(t *testing.T) {
	stored := HashCode("123456")
	if !CodeEqual("123456", stored) {
		t.Error("CodeEqual should match the same code")
	}
	if CodeEqual("123457", stored) {
		t.Error("CodeEqual should reject a different code")
	}
	if CodeEqual("", stored) {
		t.Error("CodeEqual should reject an empty code")
	}
}
