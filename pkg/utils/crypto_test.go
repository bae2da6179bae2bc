package utils

import (
	"strings"
	"testing"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintexts := []string{"", "short", "a longer secret with spaces and symbols !@#$", strings.Repeat("x", 4096)}

	for _, plaintext := range plaintexts {
		sealed, err := Encrypt([]byte(plaintext), testKey)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if sealed == plaintext && plaintext != "" {
			t.Fatal("ciphertext equals plaintext")
		}

		got, err := Decrypt(sealed, testKey)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt([]byte("secret"), testKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt([]byte("secret"), testKey)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), testKey)
	if err != nil {
		t.Fatal(err)
	}

	other := []byte("fedcba9876543210fedcba9876543210")
	if _, err := Decrypt(sealed, other); err == nil {
		t.Error("expected decryption with the wrong key to fail")
	}
}

func TestDecryptGarbage(t *testing.T) {
	if _, err := Decrypt("not base64!!!", testKey); err == nil {
		t.Error("expected invalid base64 to fail")
	}
	if _, err := Decrypt("c2hvcnQ=", testKey); err == nil {
		t.Error("expected a too-short ciphertext to fail")
	}
}

func TestEncryptRejectsBadKey(t *testing.T) {
	if _, err := Encrypt([]byte("secret"), []byte("tooshort")); err == nil {
		t.Error("expected a bad key length to fail")
	}
}
