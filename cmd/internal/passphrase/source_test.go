package passphrase

import (
	"bytes"
	"strings"
	"testing"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("AJO_TEST_PASSPHRASE", "from-env")
	src := NewSource("AJO_TEST_PASSPHRASE", "keystore passphrase")
	src.isTerminal = func(int) bool {
		t.Fatalf("terminal must not be consulted when the variable is set")
		return false
	}
	value, err := src.Get()
	if err != nil || value != "from-env" {
		t.Fatalf("unexpected result %q %v", value, err)
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	t.Setenv("AJO_TEST_PASSPHRASE", "  ")
	if _, err := NewSource("AJO_TEST_PASSPHRASE", "").Get(); err == nil {
		t.Fatalf("expected error for blank variable")
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("AJO_TEST_UNSET_PASSPHRASE", "keystore passphrase")
	src.isTerminal = func(int) bool { return false }
	_, err := src.Get()
	if err == nil || !strings.Contains(err.Error(), "AJO_TEST_UNSET_PASSPHRASE") {
		t.Fatalf("expected guidance naming the variable, got %v", err)
	}
}

func TestSourcePromptsOnceAndCaches(t *testing.T) {
	var prompt bytes.Buffer
	calls := 0
	src := NewSource("", "keystore passphrase")
	src.prompt = &prompt
	src.isTerminal = func(int) bool { return true }
	src.readPassword = func(int) ([]byte, error) {
		calls++
		return []byte("typed"), nil
	}
	for i := 0; i < 2; i++ {
		value, err := src.Get()
		if err != nil || value != "typed" {
			t.Fatalf("unexpected result %q %v", value, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single prompt, got %d", calls)
	}
	if !strings.Contains(prompt.String(), "Enter keystore passphrase") {
		t.Fatalf("unexpected prompt %q", prompt.String())
	}
}
