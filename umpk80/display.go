package umpk80

// NumDigits is the number of seven-segment digits on the front panel.
const NumDigits = 6

// Scan latches the digit-select byte. Digits are selected active-low: the
// lowest cleared bit among the first NumDigits picks the digit.
type Scan struct {
	v byte
}

func (s *Scan) WritePort(v byte) { s.v = v }

// Digit returns the selected digit, or false if no digit is selected.
func (s *Scan) Digit() (int, bool) {
	for i := 0; i < NumDigits; i++ {
		if s.v&(1<<i) == 0 {
			return i, true
		}
	}
	return 0, false
}

// Display holds the segment pattern of each digit. A write stores its value
// in the digit currently selected by the Scan register.
type Display struct {
	scan *Scan
	seg  [NumDigits]byte
}

func (d *Display) WritePort(v byte) {
	if i, ok := d.scan.Digit(); ok {
		d.seg[i] = v
	}
}

// Digit returns the segment pattern of digit i, or 0 if i is out of range.
func (d *Display) Digit(i int) byte {
	if i < 0 || i >= NumDigits {
		return 0
	}
	return d.seg[i]
}

// Segment bits of a digit's pattern.
const (
	SegA  = 1 << iota // top
	SegB              // upper right
	SegC              // lower right
	SegD              // bottom
	SegE              // lower left
	SegF              // upper left
	SegG              // middle
	SegDP             // decimal point
)

// Glyph renders a segment pattern as three lines of text.
func Glyph(seg byte) [3]string {
	on := func(mask byte, c byte) byte {
		if seg&mask != 0 {
			return c
		}
		return ' '
	}
	return [3]string{
		string([]byte{' ', on(SegA, '_'), ' ', ' '}),
		string([]byte{on(SegF, '|'), on(SegG, '_'), on(SegB, '|'), ' '}),
		string([]byte{on(SegE, '|'), on(SegD, '_'), on(SegC, '|'), on(SegDP, '.')}),
	}
}

// GlyphRow renders a row of digits as three lines of text.
func GlyphRow(digits []byte) [3]string {
	var rows [3]string
	for _, d := range digits {
		g := Glyph(d)
		for i := range rows {
			rows[i] += g[i]
		}
	}
	return rows
}
