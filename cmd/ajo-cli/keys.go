package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ajochain/cmd/internal/passphrase"
	"ajochain/crypto"
	"ajochain/rpc"
)

const (
	keystorePassEnv = "AJO_KEYSTORE_PASS"
	jwtSecretEnv    = "AJO_JWT_SECRET"
)

// passphraseFor is swapped out in tests.
var passphraseFor = func() (string, error) {
	return passphrase.NewSource(keystorePassEnv, "keystore passphrase").Get()
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen", stderr)
	out := fs.String("out", "", "keystore file to create")
	light := fs.Bool("light", false, "DEV ONLY: use the light scrypt profile")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*out) == "" {
		return printError(stderr, "--out is required")
	}
	if _, err := os.Stat(*out); err == nil {
		return printError(stderr, fmt.Sprintf("%s already exists; refusing to overwrite", *out))
	}
	pass, err := passphraseFor()
	if err != nil {
		return printError(stderr, err.Error())
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, err.Error())
	}
	strength := crypto.StandardStrength
	if *light {
		strength = crypto.LightStrength
	}
	if err := crypto.SaveKeystore(*out, key, pass, strength); err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintln(stdout, key.PubKey().Address().String())
	return 0
}

func runAddress(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("address", stderr)
	path := fs.String("keystore", "", "keystore file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	account, code := keystoreAccount(*path, stderr)
	if code != 0 {
		return code
	}
	fmt.Fprintln(stdout, crypto.FormatAccount(account))
	return 0
}

func keystoreAccount(path string, stderr io.Writer) ([20]byte, int) {
	if strings.TrimSpace(path) == "" {
		return [20]byte{}, printError(stderr, "--keystore is required")
	}
	pass, err := passphraseFor()
	if err != nil {
		return [20]byte{}, printError(stderr, err.Error())
	}
	key, err := crypto.LoadKeystore(path, pass)
	if err != nil {
		return [20]byte{}, printError(stderr, fmt.Sprintf("unlock %s: %v", path, err))
	}
	return key.PubKey().Address().Array(), 0
}

// runToken signs a bearer token for an account. It is an operator tool: it
// needs the node's HMAC secret.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token", stderr)
	accountFlag := fs.String("account", "", "bech32 account to issue the token for")
	keystorePath := fs.String("keystore", "", "derive the account from a keystore instead")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	issuer := fs.String("issuer", "", "issuer claim")
	audience := fs.String("audience", "", "audience claim")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	var account [20]byte
	switch {
	case strings.TrimSpace(*accountFlag) != "":
		parsed, err := crypto.ParseAccount(strings.TrimSpace(*accountFlag))
		if err != nil {
			return printError(stderr, fmt.Sprintf("--account: %v", err))
		}
		account = parsed
	case strings.TrimSpace(*keystorePath) != "":
		var code int
		if account, code = keystoreAccount(*keystorePath, stderr); code != 0 {
			return code
		}
	default:
		return printError(stderr, "--account or --keystore is required")
	}
	secret := strings.TrimSpace(os.Getenv(jwtSecretEnv))
	if secret == "" {
		return printError(stderr, jwtSecretEnv+" must be set")
	}
	token, err := rpc.IssueToken([]byte(secret), account, *issuer, *audience, *ttl)
	if err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintln(stdout, token)
	return 0
}
