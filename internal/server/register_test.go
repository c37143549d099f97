package server

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	const password = "correct horse 42"

	hash, err := hashPassword(password, 10)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if hash == password {
		t.Fatal("hash equals the plaintext password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q does not look like bcrypt", hash)
	}

	if !verifyPassword(password, hash) {
		t.Error("correct password rejected")
	}
	if verifyPassword("wrong password 42", hash) {
		t.Error("wrong password accepted")
	}
	if verifyPassword(password, "not-a-hash") {
		t.Error("corrupted hash accepted")
	}
}

func TestHashesDiffer(t *testing.T) {
	const password = "same input 99"

	h1, err := hashPassword(password, 10)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	h2, err := hashPassword(password, 10)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}

	// bcrypt embeds a random salt, so two hashes of the same password
	// must not match.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
	if !verifyPassword(password, h1) || !verifyPassword(password, h2) {
		t.Error("password does not verify against its own hash")
	}
}
