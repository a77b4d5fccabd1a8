package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "member.json")
	if err := SaveKeystore(path, key, "hunter2", LightStrength); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected permissions %v", info.Mode().Perm())
	}
	loaded, err := LoadKeystore(path, "hunter2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatalf("loaded key differs")
	}
	if _, err := LoadKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
}

func TestSaveKeystoreRejectsNilKey(t *testing.T) {
	if err := SaveKeystore(filepath.Join(t.TempDir(), "k.json"), nil, "x", LightStrength); err == nil {
		t.Fatalf("expected nil key error")
	}
	if _, err := LoadKeystore("", "x"); err == nil {
		t.Fatalf("expected empty path error")
	}
}
