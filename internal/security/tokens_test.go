package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func testClaims(subject string) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "wavewords-id",
		Audience:  jwt.ClaimStrings{"wavewords-core"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
	}
}

func TestVerifyAccountID(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v := NewVerifier(&key.PublicKey, "wavewords-id", "wavewords-core")

	id, err := v.VerifyAccountID(signToken(t, key, testClaims("acc-123")))
	if err != nil {
		t.Fatalf("VerifyAccountID: %v", err)
	}
	if id != "acc-123" {
		t.Errorf("account id = %q, want %q", id, "acc-123")
	}
}

func TestVerifyAccountID_Rejections(t *testing.T) {
	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	otherKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	v := NewVerifier(&key.PublicKey, "wavewords-id", "wavewords-core")

	wrongIssuer := testClaims("acc-123")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := testClaims("acc-123")
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	expired := testClaims("acc-123")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noSubject := testClaims("")

	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", signToken(t, otherKey, testClaims("acc-123"))},
		{"wrong issuer", signToken(t, key, wrongIssuer)},
		{"wrong audience", signToken(t, key, wrongAudience)},
		{"expired", signToken(t, key, expired)},
		{"no subject", signToken(t, key, noSubject)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		if _, err := v.VerifyAccountID(tt.token); err == nil {
			t.Errorf("%s: VerifyAccountID should fail", tt.name)
		}
	}
}
