package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"
)

const (
	SignatureLength = 64

	// MaxTransactionSize is the ledger's packet data limit for a serialized
	// transaction (signatures included).
	MaxTransactionSize = 1232

	// MaxAccountKeys bounds static plus loaded keys; account indexes are one byte.
	MaxAccountKeys = 256
)

var (
	ErrMissingSigner   = errors.New("missing signer for required signature")
	ErrTooManyAccounts = errors.New("too many account keys")
)

type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = 0xff
	MessageVersionV0     MessageVersion = 0
)

func (v MessageVersion) String() string {
	if v == MessageVersionLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", uint8(v))
}

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is a compiled, serialized message. Bytes is what signers sign.
type Message struct {
	Version    MessageVersion
	Header     MessageHeader
	StaticKeys []Pubkey
	Lookups    []AddressTableLookup
	Bytes      []byte
}

// TransactionSize is the serialized length of the signed transaction carrying m:
// the signature count prefix, one 64-byte slot per required signature, and the message.
func (m Message) TransactionSize() int {
	n := int(m.Header.NumRequiredSignatures)
	return shortVecSize(n) + n*SignatureLength + len(m.Bytes)
}

// Serialized returns the message bytes, the payload getFeeForMessage prices.
func (m Message) Serialized() []byte {
	return m.Bytes
}

// Sign produces the wire transaction. signers must hold a key for every
// required signature.
func (m Message) Sign(signers map[Pubkey]ed25519.PrivateKey) ([]byte, error) {
	sigCount := int(m.Header.NumRequiredSignatures)
	if sigCount > len(m.StaticKeys) {
		return nil, fmt.Errorf("invalid message: %d signatures, %d static keys", sigCount, len(m.StaticKeys))
	}
	sigs := make([]byte, 0, sigCount*SignatureLength)
	for i := 0; i < sigCount; i++ {
		priv, ok := signers[m.StaticKeys[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSigner, m.StaticKeys[i].Base58())
		}
		sigs = append(sigs, ed25519.Sign(priv, m.Bytes)...)
	}

	out := make([]byte, 0, m.TransactionSize())
	out = append(out, encodeShortVecLen(sigCount)...)
	out = append(out, sigs...)
	out = append(out, m.Bytes...)
	return out, nil
}

func BuildAndSignLegacyTransaction(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	signers map[Pubkey]ed25519.PrivateKey,
	instructions []Instruction,
) ([]byte, error) {
	msg, err := CompileLegacyMessage(recentBlockhash, feePayer, instructions)
	if err != nil {
		return nil, err
	}
	return msg.Sign(signers)
}

type accountInfo struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
	FirstSeen  int
}

// accountSet merges account metas in first-seen order, OR-ing the signer and
// writable flags of repeated keys.
type accountSet struct {
	infos map[Pubkey]*accountInfo
	seen  int
}

func newAccountSet(feePayer Pubkey, instructions []Instruction) *accountSet {
	s := &accountSet{infos: make(map[Pubkey]*accountInfo, 32)}

	// Fee payer must be a writable signer.
	s.touch(feePayer, true, true)

	for _, ix := range instructions {
		s.touch(ix.ProgramID, false, false)
		for _, am := range ix.Accounts {
			s.touch(am.Pubkey, am.IsSigner, am.IsWritable)
		}
	}
	return s
}

func (s *accountSet) touch(pk Pubkey, signer, writable bool) {
	if ai, ok := s.infos[pk]; ok {
		ai.IsSigner = ai.IsSigner || signer
		ai.IsWritable = ai.IsWritable || writable
		return
	}
	s.infos[pk] = &accountInfo{
		Pubkey:     pk,
		IsSigner:   signer,
		IsWritable: writable,
		FirstSeen:  s.seen,
	}
	s.seen++
}

// order returns the keys not in skip, grouped as writable signers, readonly
// signers, writable non-signers, readonly non-signers, each group in first-seen
// order, together with the header describing that layout.
func (s *accountSet) order(skip map[Pubkey]lookupRef) ([]Pubkey, MessageHeader) {
	var groups [4][]*accountInfo
	for _, ai := range s.infos {
		if _, ok := skip[ai.Pubkey]; ok {
			continue
		}
		g := 3
		switch {
		case ai.IsSigner && ai.IsWritable:
			g = 0
		case ai.IsSigner:
			g = 1
		case ai.IsWritable:
			g = 2
		}
		groups[g] = append(groups[g], ai)
	}

	keys := make([]Pubkey, 0, len(s.infos))
	for _, g := range groups {
		sortByFirstSeen(g)
		for _, ai := range g {
			keys = append(keys, ai.Pubkey)
		}
	}

	h := MessageHeader{
		NumRequiredSignatures:       uint8(len(groups[0]) + len(groups[1])),
		NumReadonlySignedAccounts:   uint8(len(groups[1])),
		NumReadonlyUnsignedAccounts: uint8(len(groups[3])),
	}
	return keys, h
}

func CompileLegacyMessage(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	instructions []Instruction,
) (Message, error) {
	accounts := newAccountSet(feePayer, instructions)
	accountKeys, h := accounts.order(nil)
	if len(accountKeys) > MaxAccountKeys {
		return Message{}, fmt.Errorf("%w: %d", ErrTooManyAccounts, len(accountKeys))
	}

	indexOf := make(map[Pubkey]uint8, len(accountKeys))
	for i, pk := range accountKeys {
		indexOf[pk] = uint8(i)
	}

	out := make([]byte, 0, 512)
	out = append(out, h.NumRequiredSignatures, h.NumReadonlySignedAccounts, h.NumReadonlyUnsignedAccounts)
	out = append(out, encodeShortVecLen(len(accountKeys))...)
	for _, pk := range accountKeys {
		out = append(out, pk[:]...)
	}
	out = append(out, recentBlockhash[:]...)

	out, err := appendInstructions(out, instructions, indexOf)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Version:    MessageVersionLegacy,
		Header:     h,
		StaticKeys: accountKeys,
		Bytes:      out,
	}, nil
}

func appendInstructions(out []byte, instructions []Instruction, indexOf map[Pubkey]uint8) ([]byte, error) {
	out = append(out, encodeShortVecLen(len(instructions))...)
	for _, ix := range instructions {
		pid, ok := indexOf[ix.ProgramID]
		if !ok {
			return nil, fmt.Errorf("program id missing from account list: %s", ix.ProgramID.Base58())
		}
		out = append(out, pid)
		out = append(out, encodeShortVecLen(len(ix.Accounts))...)
		for _, am := range ix.Accounts {
			ai, ok := indexOf[am.Pubkey]
			if !ok {
				return nil, fmt.Errorf("account missing from account list: %s", am.Pubkey.Base58())
			}
			out = append(out, ai)
		}
		out = append(out, encodeShortVecLen(len(ix.Data))...)
		out = append(out, ix.Data...)
	}
	return out, nil
}

func sortByFirstSeen(infos []*accountInfo) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].FirstSeen < infos[j].FirstSeen
	})
}
