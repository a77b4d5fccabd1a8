package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable part used when rendering accounts.
type AddressPrefix string

const (
	// AjoPrefix is the prefix for member accounts.
	AjoPrefix AddressPrefix = "ajo"
	// VaultPrefix is used when rendering module-owned vault accounts.
	VaultPrefix AddressPrefix = "ajovault"
)

// AddressLength is the size of a raw account identifier.
const AddressLength = 20

var errAddressLength = errors.New("crypto: address must be 20 bytes long")

// Address represents a 20-byte account identifier with a bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress wraps the raw bytes. It panics when b is not 20 bytes long.
func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != AddressLength {
		panic(errAddressLength.Error())
	}
	return Address{prefix: prefix, bytes: append([]byte(nil), b...)}
}

// AddressFromArray wraps a fixed-size account identifier.
func AddressFromArray(prefix AddressPrefix, raw [20]byte) Address {
	return NewAddress(prefix, raw[:])
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Array returns the address as a fixed-size identifier.
func (a Address) Array() [20]byte {
	var out [20]byte
	copy(out[:], a.bytes)
	return out
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(strings.TrimSpace(addrStr))
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != AddressLength {
		return Address{}, errAddressLength
	}
	return NewAddress(AddressPrefix(prefix), conv), nil
}

// ParseAccount decodes a bech32 account string into its raw identifier. Only
// the member prefix is accepted.
func ParseAccount(addrStr string) ([20]byte, error) {
	addr, err := DecodeAddress(addrStr)
	if err != nil {
		return [20]byte{}, err
	}
	if addr.Prefix() != AjoPrefix {
		return [20]byte{}, fmt.Errorf("crypto: unexpected address prefix %q", addr.Prefix())
	}
	return addr.Array(), nil
}

// FormatAccount renders a raw member identifier in bech32 form.
func FormatAccount(raw [20]byte) string {
	return AddressFromArray(AjoPrefix, raw).String()
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return NewAddress(AjoPrefix, addrBytes)
}

// DeriveAccount derives a deterministic account identifier from a label. It is
// used for module vaults which have no private key.
func DeriveAccount(label string) [20]byte {
	digest := crypto.Keccak256([]byte(label))
	var out [20]byte
	copy(out[:], digest[len(digest)-AddressLength:])
	return out
}
