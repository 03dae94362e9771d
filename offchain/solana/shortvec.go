package solana

import "errors"

var (
	errShortVecOutOfBounds = errors.New("shortvec: out of bounds")
	errShortVecTruncated   = errors.New("shortvec: truncated")
	errShortVecTooLong     = errors.New("shortvec: too long")
)

// encodeShortVecLen is the ledger's compact-u16 length prefix: 7 bits per byte,
// high bit set on every byte but the last.
func encodeShortVecLen(n int) []byte {
	if n < 0 {
		panic("encodeShortVecLen: negative length")
	}
	v := uint64(n)
	out := make([]byte, 0, 4)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			out = append(out, b)
			break
		}
		out = append(out, b|0x80)
	}
	return out
}

// shortVecSize is len(encodeShortVecLen(n)) without allocating.
func shortVecSize(n int) int {
	if n < 0 {
		panic("shortVecSize: negative length")
	}
	size := 1
	for v := uint64(n) >> 7; v != 0; v >>= 7 {
		size++
	}
	return size
}

func decodeShortVecLenAt(b []byte, off int) (int, int, error) {
	if off < 0 || off >= len(b) {
		return 0, off, errShortVecOutOfBounds
	}
	var out uint64
	var shift uint
	i := 0
	for {
		if off+i >= len(b) {
			return 0, off, errShortVecTruncated
		}
		bt := b[off+i]
		out |= uint64(bt&0x7f) << shift
		i++
		if (bt & 0x80) == 0 {
			break
		}
		shift += 7
		if shift > 14 {
			return 0, off, errShortVecTooLong
		}
	}
	return int(out), off + i, nil
}
