package i8080

import (
	"math/bits"
	"strings"
)

// Flags holds the condition flags in the bit positions they occupy in the
// processor status word.
type Flags byte

const (
	FlagCY Flags = 1 << 0 // carry
	FlagP  Flags = 1 << 2 // parity (even)
	FlagAC Flags = 1 << 4 // auxiliary carry
	FlagZ  Flags = 1 << 6 // zero
	FlagS  Flags = 1 << 7 // sign

	flagMask = FlagCY | FlagP | FlagAC | FlagZ | FlagS
)

// Has reports whether all flags in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// PSW returns the flags as pushed by PUSH PSW: bit 1 always reads as one,
// bits 3 and 5 as zero.
func (f Flags) PSW() byte { return byte(f&flagMask) | 0x02 }

func (f *Flags) set(mask Flags, on bool) {
	if on {
		*f |= mask
	} else {
		*f &^= mask
	}
}

// setSZP sets sign, zero and parity from the result v.
func (f *Flags) setSZP(v byte) {
	f.set(FlagS, v&0x80 != 0)
	f.set(FlagZ, v == 0)
	f.set(FlagP, bits.OnesCount8(v)%2 == 0)
}

func (f Flags) String() string {
	var b strings.Builder
	for _, c := range []struct {
		f Flags
		s byte
	}{
		{FlagS, 'S'},
		{FlagZ, 'Z'},
		{FlagAC, 'A'},
		{FlagP, 'P'},
		{FlagCY, 'C'},
	} {
		if f.Has(c.f) {
			b.WriteByte(c.s)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
