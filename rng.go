package pathoram

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// newLeafRNG builds the engine-private generator behind leaf assignments.
// A nil seed draws fresh entropy, so two unseeded engines produce
// independent access patterns; a fixed seed reproduces the full path
// sequence.
func newLeafRNG(seed *uint64) *rand.Rand {
	var s0, s1 uint64
	if seed != nil {
		s0 = *seed
		s1 = *seed ^ 0x9e3779b97f4a7c15
	} else {
		var buf [16]byte
		if _, err := cryptorand.Read(buf[:]); err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		s0 = binary.LittleEndian.Uint64(buf[0:8])
		s1 = binary.LittleEndian.Uint64(buf[8:16])
	}
	return rand.New(rand.NewPCG(s0, s1))
}
