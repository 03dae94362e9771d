package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadKeypair(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 7
	}
	priv := ed25519.NewKeyFromSeed(seed)
	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	gotPriv, gotPub, err := LoadKeypair(path)
	if err != nil {
		t.Fatalf("LoadKeypair: %v", err)
	}
	if !gotPriv.Equal(priv) {
		t.Fatalf("private key mismatch")
	}
	if string(gotPub[:]) != string(priv.Public().(ed25519.PublicKey)) {
		t.Fatalf("public key mismatch")
	}
}

func TestLoadKeypair_Invalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"notjson.json": "nope",
		"short.json":   "[1,2,3]",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, _, err := LoadKeypair(path); err != ErrInvalidKeypairFile {
			t.Fatalf("%s: want ErrInvalidKeypairFile, got %v", name, err)
		}
	}
	if _, _, err := LoadKeypair(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
