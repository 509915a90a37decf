package umpk80

import (
	"image"
	"image/color"
	"testing"
)

func center(r image.Rectangle) image.Point {
	return r.Min.Add(r.Size().Div(2))
}

func TestDrawPanel(t *testing.T) {
	img := image.NewRGBA(image.Rectangle{Max: panelSize})
	held := KeyStep
	drawPanel(img, Panel{Digits: [NumDigits]byte{SegA | SegDP}}, &held)

	segs := segRects(digitRect(0))
	for s, want := range map[int]color.RGBA{
		0: colSegOn,
		1: colSegOff,
		6: colSegOff,
		7: colSegOn,
	} {
		p := center(segs[s])
		if g := img.RGBAAt(p.X, p.Y); g != want {
			t.Errorf("segment %d at %v is %v, want %v", s, p, g, want)
		}
	}
	if g := img.RGBAAt(center(digitRect(1)).X, margin); g != colSegOff {
		t.Errorf("digit 1 segment a is %v, want off", g)
	}
	r := capRect(2, 5)
	if g := img.RGBAAt(r.Min.X+1, r.Min.Y+1); g != colPressed {
		t.Errorf("held key cap is %v, want %v", g, colPressed)
	}
}

func TestKeyAt(t *testing.T) {
	for row, keys := range keypad {
		for col, k := range keys {
			if g, ok := keyAt(center(capRect(row, col))); !ok || g != k {
				t.Errorf("keyAt(cap %d,%d) = %v, %v; want %v", row, col, g, ok, k)
			}
		}
	}
	if _, ok := keyAt(image.Point{1, 1}); ok {
		t.Error("keyAt in the margin found a key")
	}
	seen := map[Key]bool{}
	for _, keys := range keypad {
		for _, k := range keys {
			seen[k] = true
		}
	}
	for k := Key0; k <= KeyReset; k++ {
		if !seen[k] {
			t.Errorf("key %v has no cap", k)
		}
	}
}

func TestRuneKey(t *testing.T) {
	for r, want := range map[rune]Key{
		'0': Key0,
		'9': Key9,
		'a': KeyA,
		'F': KeyF,
		'g': KeyRun,
		's': KeyStep,
		'm': KeyAddr,
		'r': KeyRead,
		'w': KeyWrite,
		'x': KeyCancel,
	} {
		if g, ok := runeKey(r); !ok || g != want {
			t.Errorf("runeKey(%q) = %v, %v; want %v", r, g, ok, want)
		}
	}
	if _, ok := runeKey('z'); ok {
		t.Error("runeKey(z) succeeded")
	}
}
