package solana

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrInvalidSeeds = errors.New("invalid seeds")
	ErrOnCurve      = errors.New("derived address is on-curve")
	ErrNoViablePDA  = errors.New("no viable program address found")
)

// FindProgramAddress searches bumps from 255 down and returns the first
// off-curve address.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := uint8(255); ; bump-- {
		withBump[len(seeds)] = []byte{bump}
		pda, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return pda, bump, nil
		}
		if errors.Is(err, ErrInvalidSeeds) {
			return Pubkey{}, 0, err
		}
		if bump == 0 {
			return Pubkey{}, 0, ErrNoViablePDA
		}
	}
}

func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, ErrInvalidSeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Pubkey{}, ErrInvalidSeeds
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out Pubkey
	copy(out[:], h.Sum(nil))
	if isOnCurve(out) {
		return Pubkey{}, ErrOnCurve
	}
	return out, nil
}

func isOnCurve(pk Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}
