package solana

import (
	"crypto/ed25519"
	"errors"
	"testing"
)

func testKey(b byte) Pubkey {
	var pk Pubkey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func testSigner(t *testing.T, seedByte byte) (ed25519.PrivateKey, Pubkey) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pub Pubkey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return priv, pub
}

func TestBuildAndSignLegacyTransaction_SignatureVerifies(t *testing.T) {
	priv, feePayer := testSigner(t, 1)
	recipient := testKey(0x44)
	blockhash := [32]byte(testKey(0x42))

	tx, err := BuildAndSignLegacyTransaction(
		blockhash,
		feePayer,
		map[Pubkey]ed25519.PrivateKey{feePayer: priv},
		[]Instruction{SystemTransfer(feePayer, recipient, 5)},
	)
	if err != nil {
		t.Fatalf("BuildAndSignLegacyTransaction: %v", err)
	}

	parsed, err := ParseTransaction(tx)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if len(parsed.Signatures) != 1 {
		t.Fatalf("sigCount=%d, want 1", len(parsed.Signatures))
	}
	if parsed.Message.Version != MessageVersionLegacy {
		t.Fatalf("version=%s, want legacy", parsed.Message.Version)
	}
	msg := tx[1+SignatureLength:]
	if !ed25519.Verify(ed25519.PublicKey(feePayer[:]), msg, parsed.Signatures[0][:]) {
		t.Fatalf("signature did not verify")
	}
	want := []Pubkey{feePayer, recipient, SystemProgramID}
	if len(parsed.Message.StaticKeys) != len(want) {
		t.Fatalf("keys=%d, want %d", len(parsed.Message.StaticKeys), len(want))
	}
	for i := range want {
		if parsed.Message.StaticKeys[i] != want[i] {
			t.Fatalf("key[%d]=%s, want %s", i, parsed.Message.StaticKeys[i], want[i])
		}
	}
	if parsed.Message.Header != (MessageHeader{NumRequiredSignatures: 1, NumReadonlySignedAccounts: 0, NumReadonlyUnsignedAccounts: 1}) {
		t.Fatalf("header=%+v", parsed.Message.Header)
	}
}

func TestCompileLegacyMessage_TransactionSizeMatchesSignedLength(t *testing.T) {
	priv, feePayer := testSigner(t, 9)
	ixs := []Instruction{
		SystemTransfer(feePayer, testKey(0x10), 1),
		SystemTransfer(feePayer, testKey(0x11), 1),
	}
	msg, err := CompileLegacyMessage([32]byte{}, feePayer, ixs)
	if err != nil {
		t.Fatalf("CompileLegacyMessage: %v", err)
	}
	tx, err := msg.Sign(map[Pubkey]ed25519.PrivateKey{feePayer: priv})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(tx) != msg.TransactionSize() {
		t.Fatalf("len(tx)=%d, TransactionSize=%d", len(tx), msg.TransactionSize())
	}
	// 1+64 signatures, 3 header, 1+4*32 keys, 32 blockhash, 1 + 2*17 instructions.
	if want := 65 + 3 + 1 + 4*32 + 32 + 1 + 2*17; len(tx) != want {
		t.Fatalf("len(tx)=%d, want %d", len(tx), want)
	}
}

func TestMessageSign_MissingSigner(t *testing.T) {
	_, feePayer := testSigner(t, 3)
	msg, err := CompileLegacyMessage([32]byte{}, feePayer, nil)
	if err != nil {
		t.Fatalf("CompileLegacyMessage: %v", err)
	}
	if _, err := msg.Sign(nil); !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("want ErrMissingSigner, got %v", err)
	}
}

func TestCompileLegacyMessage_TooManyAccounts(t *testing.T) {
	_, feePayer := testSigner(t, 4)
	ixs := make([]Instruction, 0, 260)
	for i := 0; i < 260; i++ {
		var to Pubkey
		to[0] = byte(i)
		to[1] = byte(i >> 8)
		to[2] = 0xEE
		ixs = append(ixs, SystemTransfer(feePayer, to, 1))
	}
	if _, err := CompileLegacyMessage([32]byte{}, feePayer, ixs); !errors.Is(err, ErrTooManyAccounts) {
		t.Fatalf("want ErrTooManyAccounts, got %v", err)
	}
}
