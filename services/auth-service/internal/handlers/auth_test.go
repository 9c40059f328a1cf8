package handlers

import (
	"testing"

	"github.com/tireline/tireline/libs/auth"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestHS256SignerRoundTrip(t *testing.T) {
	signer := NewHS256Signer("unit-secret")
	token, err := signer.Sign(auth.Claims{
		Sub:      "user-1",
		BranchID: "branch-1",
		Role:     "manager",
		Locale:   "hu",
		Exp:      4102444800,
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.BranchID != "branch-1" || claims.Role != "manager" || claims.Locale != "hu" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestHS256SignerRejectsRotation(t *testing.T) {
	signer := NewHS256Signer("unit-secret")
	if signer.CanRotate() {
		t.Fatal("hs256 signer should not support rotation")
	}
	if err := signer.SetActiveKid("k1"); err == nil {
		t.Fatal("SetActiveKid should fail")
	}
}
