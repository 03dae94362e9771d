package solana

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

const PubkeyLength = 32

type Pubkey [PubkeyLength]byte

var (
	ErrInvalidPubkey = errors.New("invalid pubkey")
)

// ParsePubkey accepts base58 (the ledger's canonical text form) or 64 hex chars.
func ParsePubkey(s string) (Pubkey, error) {
	var out Pubkey
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return out, ErrInvalidPubkey
	}

	if len(s) == 2*PubkeyLength {
		b, err := hex.DecodeString(s)
		if err == nil && len(b) == PubkeyLength {
			copy(out[:], b)
			return out, nil
		}
	}

	b, err := base58.Decode(s)
	if err != nil || len(b) != PubkeyLength {
		return out, ErrInvalidPubkey
	}
	copy(out[:], b)
	return out, nil
}

func MustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PubkeyFromBytes fails unless b is exactly 32 bytes.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var out Pubkey
	if len(b) != PubkeyLength {
		return out, ErrInvalidPubkey
	}
	copy(out[:], b)
	return out, nil
}

func (k Pubkey) Base58() string {
	return base58.Encode(k[:])
}

func (k Pubkey) String() string {
	return k.Base58()
}

func (k Pubkey) IsZero() bool {
	return k == Pubkey{}
}
