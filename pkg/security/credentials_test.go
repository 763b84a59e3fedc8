package security_test

import (
	"strings"
	"testing"

	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/security"
)

func TestHashAndVerifySecret(t *testing.T) {
	cfg := config.SecurityConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashSecret("ds_very-secret-value", cfg)
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashSecret returned empty string")
	}

	ok, err := security.VerifySecret("ds_very-secret-value", hash)
	if err != nil {
		t.Fatalf("VerifySecret returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifySecret failed for the correct secret")
	}

	ok, err = security.VerifySecret("ds_bogus", hash)
	if err != nil {
		t.Fatalf("VerifySecret returned error for wrong secret: %v", err)
	}
	if ok {
		t.Fatal("VerifySecret returned true for incorrect secret")
	}
}

func TestVerifySecretBadHash(t *testing.T) {
	if _, err := security.VerifySecret("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestNewAPIKeyPair(t *testing.T) {
	key, secret, err := security.NewAPIKeyPair()
	if err != nil {
		t.Fatalf("NewAPIKeyPair returned error: %v", err)
	}
	if !strings.HasPrefix(key, "dk_") || len(key) != 3+32 {
		t.Fatalf("unexpected key format: %s", key)
	}
	if !strings.HasPrefix(secret, "ds_") || len(secret) != 3+64 {
		t.Fatalf("unexpected secret format: %s", secret)
	}

	key2, _, err := security.NewAPIKeyPair()
	if err != nil {
		t.Fatalf("NewAPIKeyPair returned error: %v", err)
	}
	if key == key2 {
		t.Fatal("expected distinct keys")
	}
}
