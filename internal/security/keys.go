package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// ErrInvalidKey is returned for unreadable PEM, unsupported key types and mismatched pairs.
var ErrInvalidKey = errors.New("invalid key")

// KeyPair is the asymmetric session signing material loaded from configuration.
type KeyPair struct {
	Signer crypto.Signer
	Public crypto.PublicKey
	Alg    string
}

// LoadKeyPair parses the private key and, when given, the public key. Each value may be inline PEM
// or a file path. An empty public value is derived from the private key; a given one must match it.
func LoadKeyPair(private, public string) (*KeyPair, error) {
	signer, err := ParsePrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pub := signer.Public()
	if strings.TrimSpace(public) != "" {
		parsed, err := ParsePublicKey(public)
		if err != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}
		if !samePublicKey(pub, parsed) {
			return nil, fmt.Errorf("public key does not match private key: %w", ErrInvalidKey)
		}
		pub = parsed
	}
	alg := KeyAlg(pub)
	if alg == "" {
		return nil, ErrInvalidKey
	}
	return &KeyPair{Signer: signer, Public: pub, Alg: alg}, nil
}

// LoadPEM returns s itself when it is inline PEM, otherwise the contents of the file at path s.
// Literal "\n" sequences from env files are expanded.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, ErrInvalidKey
	case strings.HasPrefix(s, "-----BEGIN"):
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	default:
		return os.ReadFile(s)
	}
}

// ParsePrivateKey accepts PKCS#1 RSA, SEC 1 EC and PKCS#8 private keys.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	block, err := decodePEM(s)
	if err != nil {
		return nil, err
	}
	var key any
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, ErrInvalidKey
	}
	return signer, nil
}

// ParsePublicKey accepts PKCS#1 RSA and PKIX public keys.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	block, err := decodePEM(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	}
	return nil, ErrInvalidKey
}

// KeyAlg maps a public key to its JWS algorithm, or "" when sessions cannot be signed with it.
func KeyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	}
	return ""
}

func samePublicKey(a, b crypto.PublicKey) bool {
	if eq, ok := a.(interface{ Equal(crypto.PublicKey) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

func decodePEM(s string) (*pem.Block, error) {
	raw, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}
