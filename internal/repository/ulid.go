package repository

import (
	"crypto/rand"
	"math/big"
	"time"
)

// crockfordAlphabet is Crockford's Base32, which excludes I, L, O, U to
// avoid visual ambiguity — the same alphabet the §3/§8 object-key regex
// `[0-9A-HJKMNP-TV-Z]{26}` names. No ULID library appears anywhere in this
// codebase's dependency graph; this is a deliberate stdlib-only addition
// (see DESIGN.md).
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// newULID generates a 26-character ULID: a 48-bit millisecond timestamp
// followed by 80 bits of cryptographic randomness, Crockford Base32
// encoded. Collision-free by construction for the storage key shape
// `user_id/<ulid>.mp4` (§5 "keys are collision-free by construction").
func newULID() (string, error) {
	var raw [16]byte

	ms := time.Now().UnixMilli()
	raw[0] = byte(ms >> 40)
	raw[1] = byte(ms >> 32)
	raw[2] = byte(ms >> 24)
	raw[3] = byte(ms >> 16)
	raw[4] = byte(ms >> 8)
	raw[5] = byte(ms)

	if _, err := rand.Read(raw[6:]); err != nil {
		return "", err
	}

	n := new(big.Int).SetBytes(raw[:])
	mask := big.NewInt(31)
	out := make([]byte, 26)
	for i := 25; i >= 0; i-- {
		idx := new(big.Int).And(n, mask).Int64()
		out[i] = crockfordAlphabet[idx]
		n.Rsh(n, 5)
	}
	return string(out), nil
}
