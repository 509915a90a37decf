package umpk80

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

var (
	termSegStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	termLabelStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// runTerm shows the front panel in the terminal until escape is pressed or
// the Runner stops. Terminals do not report key releases, so each key press
// is held for keyHold.
func (r *Runner) runTerm() error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-r.done:
				return
			}
		}
	}()

	t := time.NewTicker(time.Second / 30)
	defer t.Stop()

	var (
		last  Panel
		dirty = true
	)
	for {
		select {
		case <-r.done:
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				s.Sync()
				dirty = true
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyEscape, tcell.KeyCtrlC:
					r.stop()
					return nil
				case tcell.KeyF1:
					r.tapKey(KeyReset)
				case tcell.KeyF2:
					r.tapKey(KeyStop)
				case tcell.KeyEnter:
					r.tapKey(KeyRun)
				case tcell.KeyBackspace, tcell.KeyBackspace2:
					r.tapKey(KeyCancel)
				case tcell.KeyRune:
					if k, ok := runeKey(ev.Rune()); ok {
						r.tapKey(k)
					}
				}
			}

		case <-t.C:
			if p := r.Panel(); dirty || p != last {
				last, dirty = p, false
				s.Clear()
				drawTerm(s, p)
				s.Show()
			}
		}
	}
}

// drawTerm draws the digits and a status line at the top left of s.
func drawTerm(s tcell.Screen, p Panel) {
	put := func(x, y int, str string, style tcell.Style) {
		for _, c := range str {
			s.SetContent(x, y, c, nil, style)
			x++
		}
	}
	for y, line := range GlyphRow(p.Digits[:]) {
		put(2, 1+y, line, termSegStyle)
	}
	status := fmt.Sprintf("%v  out %.2x", p.State, p.Output)
	if p.Halted {
		status += "  halted"
	}
	if p.Paused {
		status += "  paused"
	}
	put(2, 5, status, termLabelStyle)
	for i, line := range []string{
		"0-9 a-f hex   g run   s step   m addr",
		"r read   w write   x cancel",
		"F1 reset   F2 stop   esc quit",
	} {
		put(2, 7+i, line, termLabelStyle)
	}
}
