package umpk80

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Front panel geometry, in pixels.
const (
	margin   = 16
	digitW   = 36
	digitH   = 60
	digitGap = 12
	segW     = 5
	capW     = 52
	capH     = 32
	capGap   = 8
	keysTop  = margin + digitH + 24
)

// keypad is the layout of the key caps, top row first.
var keypad = [][]Key{
	{KeyC, KeyD, KeyE, KeyF, KeyReset, KeyStop},
	{Key8, Key9, KeyA, KeyB, KeyAddr, KeyRun},
	{Key4, Key5, Key6, Key7, KeyRead, KeyStep},
	{Key0, Key1, Key2, Key3, KeyWrite, KeyCancel},
}

// panelSize is the size of the rendered front panel.
var panelSize = image.Point{
	X: 2*margin + 6*capW + 5*capGap,
	Y: keysTop + 4*capH + 3*capGap + margin,
}

var (
	colBackground = color.RGBA{0x20, 0x22, 0x20, 0xff}
	colSegOn      = color.RGBA{0xff, 0x30, 0x20, 0xff}
	colSegOff     = color.RGBA{0x40, 0x24, 0x22, 0xff}
	colHexCap     = color.RGBA{0xd8, 0xd8, 0xd0, 0xff}
	colFuncCap    = color.RGBA{0x50, 0x60, 0x80, 0xff}
	colLineCap    = color.RGBA{0xa0, 0x30, 0x30, 0xff}
	colPressed    = color.RGBA{0xff, 0xe0, 0x80, 0xff}
	colHexLabel   = color.Black
	colFuncLabel  = color.White
)

// digitRect returns the bounds of digit i.
func digitRect(i int) image.Rectangle {
	x := margin + i*(digitW+digitGap)
	return image.Rect(x, margin, x+digitW, margin+digitH)
}

// segRects returns the bounds of each segment of a digit at r, indexed by
// segment bit.
func segRects(r image.Rectangle) [8]image.Rectangle {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	ym := y0 + r.Dy()/2
	return [8]image.Rectangle{
		image.Rect(x0+segW, y0, x1-segW, y0+segW),            // a
		image.Rect(x1-segW, y0+segW, x1, ym),                 // b
		image.Rect(x1-segW, ym, x1, y1-segW),                 // c
		image.Rect(x0+segW, y1-segW, x1-segW, y1),            // d
		image.Rect(x0, ym, x0+segW, y1-segW),                 // e
		image.Rect(x0, y0+segW, x0+segW, ym),                 // f
		image.Rect(x0+segW, ym-segW/2, x1-segW, ym+segW/2+1), // g
		image.Rect(x1+2, y1-segW, x1+2+segW, y1),             // dp
	}
}

// capRect returns the bounds of the key cap at row, col of the keypad.
func capRect(row, col int) image.Rectangle {
	x := margin + col*(capW+capGap)
	y := keysTop + row*(capH+capGap)
	return image.Rect(x, y, x+capW, y+capH)
}

// keyAt returns the key whose cap contains p.
func keyAt(p image.Point) (Key, bool) {
	for row, keys := range keypad {
		for col, k := range keys {
			if p.In(capRect(row, col)) {
				return k, true
			}
		}
	}
	return 0, false
}

// drawPanel renders p onto dst. If held is non-nil, that key is drawn
// pressed.
func drawPanel(dst draw.Image, p Panel, held *Key) {
	fill := func(r image.Rectangle, c color.Color) {
		draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	fill(dst.Bounds(), colBackground)

	for i, seg := range p.Digits {
		for s, r := range segRects(digitRect(i)) {
			c := colSegOff
			if seg&(1<<s) != 0 {
				c = colSegOn
			}
			fill(r, c)
		}
	}

	for row, keys := range keypad {
		for col, k := range keys {
			r := capRect(row, col)
			capCol, label := color.Color(colFuncCap), color.Color(colFuncLabel)
			switch {
			case held != nil && *held == k:
				capCol, label = colPressed, colHexLabel
			case k <= KeyF:
				capCol, label = colHexCap, colHexLabel
			case k == KeyStop || k == KeyReset:
				capCol = colLineCap
			}
			fill(r, capCol)
			drawLabel(dst, r, strings.ToUpper(k.String()), label)
		}
	}
}

// drawLabel draws s centred in r.
func drawLabel(dst draw.Image, r image.Rectangle, s string, c color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Round()
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Round()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.P(
			r.Min.X+(r.Dx()-w)/2,
			r.Min.Y+(r.Dy()-h)/2+m.Ascent.Round(),
		),
	}
	d.DrawString(s)
}

// runeKey maps a host keyboard character to a keypad key.
func runeKey(r rune) (Key, bool) {
	switch {
	case r >= '0' && r <= '9':
		return Key(r - '0'), true
	case r >= 'a' && r <= 'f':
		return Key(r-'a') + KeyA, true
	case r >= 'A' && r <= 'F':
		return Key(r-'A') + KeyA, true
	}
	switch r {
	case 'g', '\r', '\n':
		return KeyRun, true
	case 's', ' ':
		return KeyStep, true
	case 'm':
		return KeyAddr, true
	case 'r':
		return KeyRead, true
	case 'w':
		return KeyWrite, true
	case 'x', '\b':
		return KeyCancel, true
	}
	return 0, false
}

// HostKeys describes the host keyboard bindings, for usage messages.
const HostKeys = `keys: 0-9 a-f hex, g/enter run, s/space step, m addr, r read,
      w write, x/backspace cancel, F1 reset, F2 stop, esc quit`
