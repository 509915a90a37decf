package umpk80

import (
	"image"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

type gui struct {
	r *Runner

	buf   screen.Buffer
	tex   screen.Texture
	last  Panel
	held  *Key // key cap held down with the mouse
	dirty bool
}

// runGUI shows the front panel in a window until the window is closed or
// the Runner stops. It must be called from the main goroutine.
func (r *Runner) runGUI() (err error) {
	driver.Main(func(s screen.Screen) {
		w, e := s.NewWindow(&screen.NewWindowOptions{
			Title:  "umpk80",
			Width:  panelSize.X,
			Height: panelSize.Y,
		})
		if e != nil {
			err = e
			return
		}
		defer w.Release()

		g := &gui{r: r, dirty: true}
		if err = g.alloc(s); err != nil {
			return
		}
		defer g.release()

		type update struct{}
		go func() {
			t := time.NewTicker(time.Second / fps)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-r.done:
					return
				}
			}
		}()

		var sz size.Event
		for {
			e := w.NextEvent()

			select {
			case <-r.done:
				return
			default:
			}

			switch e := e.(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					r.stop()
					return
				}
				g.dirty = true

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					r.stop()
					return
				}

			case paint.Event:
				g.dirty = true

			case key.Event:
				if e.Code == key.CodeEscape {
					r.stop()
					return
				}
				k, ok := guiKey(e)
				if !ok {
					break
				}
				switch e.Direction {
				case key.DirPress:
					r.PressKey(k)
				case key.DirRelease:
					r.ReleaseKey(k)
				}

			case mouse.Event:
				if e.Button != mouse.ButtonLeft || sz.WidthPx == 0 || sz.HeightPx == 0 {
					break
				}
				p := image.Point{
					X: int(float32(panelSize.X) / float32(sz.WidthPx) * e.X),
					Y: int(float32(panelSize.Y) / float32(sz.HeightPx) * e.Y),
				}
				switch e.Direction {
				case mouse.DirPress:
					if k, ok := keyAt(p); ok {
						g.held = &k
						r.PressKey(k)
						g.dirty = true
					}
				case mouse.DirRelease:
					if g.held != nil {
						r.ReleaseKey(*g.held)
						g.held = nil
						g.dirty = true
					}
				}

			case update:
				if p := r.Panel(); p != g.last || g.dirty {
					g.last = p
					drawPanel(g.buf.RGBA(), p, g.held)
					g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
					w.Scale(sz.Bounds(), g.tex, g.tex.Bounds(), draw.Src, nil)
					w.Publish()
					g.dirty = false
				}

			case error:
				log.Print(e)
			}
		}
	})
	return err
}

func (g *gui) alloc(s screen.Screen) (err error) {
	if g.buf, err = s.NewBuffer(panelSize); err != nil {
		return
	}
	g.tex, err = s.NewTexture(panelSize)
	return
}

func (g *gui) release() {
	if g.tex != nil {
		g.tex.Release()
	}
	if g.buf != nil {
		g.buf.Release()
	}
}

func guiKey(e key.Event) (Key, bool) {
	switch e.Code {
	case key.CodeF1:
		return KeyReset, true
	case key.CodeF2:
		return KeyStop, true
	case key.CodeReturnEnter:
		return KeyRun, true
	case key.CodeDeleteBackspace:
		return KeyCancel, true
	}
	return runeKey(e.Rune)
}
