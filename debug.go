package main

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/umpk80/i8080"
	"github.com/nf/umpk80/umpk80"
)

type debugger struct {
	run *umpk80.Runner

	log   *tview.TextView
	watch *tview.TextView
	panel *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	brk *symbol

	mu      sync.Mutex
	syms    symbols
	watches []watch
}

type watch struct {
	symbol
	word bool
}

func (d *debugger) symbols() symbols {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syms
}

func (d *debugger) setSymbols(s symbols) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syms = s
}

func newDebugger() *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		panel: tview.NewTextView().
			SetWrap(false),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.panel.SetTextColor(tcell.ColorRed)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.panel, 4, 0, false).
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 3, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok {
			switch cmd {
			case "b", "break", "w", "w2", "watch", "watch2":
				for _, s := range d.symbols().withLabelPrefix(arg) {
					entries = append(entries, cmd+" "+s.label)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		d.command(cmd)
	})
	return d
}

func (d *debugger) command(cmd string) {
	if cmd == "exit" {
		d.app.Stop()
		return
	}
	if cmd, arg, ok := strings.Cut(cmd, " "); ok {
		switch cmd {
		case "b", "break":
			s, ok := d.symbols().resolve(arg)
			if !ok {
				log.Printf("invalid addr %q", arg)
				return
			}
			d.run.Debug("break", s.addr)
			d.mu.Lock()
			d.brk = &s
			d.mu.Unlock()
			log.Printf("set break %.4x", s.addr)
			return
		case "w", "w2", "watch", "watch2":
			s, ok := d.symbols().resolve(arg)
			if !ok {
				log.Printf("invalid address %q", arg)
				return
			}
			d.mu.Lock()
			d.watches = append(d.watches,
				watch{symbol: s, word: strings.HasSuffix(cmd, "2")})
			d.mu.Unlock()
			log.Printf("watching %.4x", s.addr)
			return
		case "k", "key":
			k, ok := umpk80.ParseKey(arg)
			if !ok {
				log.Printf("invalid key %q", arg)
				return
			}
			d.run.Debug("key", uint16(k))
			return
		}
	}
	switch cmd {
	case "b", "break":
		d.run.Debug("clear", 0)
		d.mu.Lock()
		d.brk = nil
		d.mu.Unlock()
		log.Print("cleared break")
	case "s", "step":
		d.run.Debug("step", 0)
	case "c", "cont", "continue":
		d.run.Debug("continue", 0)
	case "p", "pause":
		d.run.Debug("pause", 0)
	case "r", "reset":
		d.run.Debug("restart", 0)
	case "st", "stop":
		d.run.Debug("stop", 0)
	case "ports":
		d.run.Debug("ports", 0)
	default:
		log.Printf("unknown command %q", cmd)
	}
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) StateFunc(t *umpk80.Trainer, k umpk80.StateKind) {
	var (
		watch  = d.watchContent(t.CPU())
		digits = t.Digits()
		panel  = umpk80.GlyphRow(digits[:])
		state  string
	)
	if k != umpk80.QuietState {
		state = stateMsg(d.symbols(), t, k)
	}
	d.app.QueueUpdateDraw(func() {
		switch k {
		case umpk80.ClearState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case umpk80.BreakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case umpk80.PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case umpk80.HaltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		d.panel.SetText(strings.Join(panel[:], "\n"))
		if k != umpk80.QuietState {
			d.state.SetText(state)
		}
	})
}

func stateMsg(syms symbols, t *umpk80.Trainer, k umpk80.StateKind) string {
	var (
		m       = t.CPU()
		text, _ = m.Disassemble(m.PC)
		pcSym   string
		sym     string
	)
	if s := syms.forAddr(m.PC); len(s) > 0 {
		pcSym = s[0].String() + " -> "
	}
	if addr, ok := addrForOp(m); ok {
		switch op := i8080.Op(m.Bus.Read(m.PC)).Alias(); {
		case op == i8080.IN || op == i8080.OUT:
			sym = fmt.Sprintf("port %.2x", addr)
		default:
			for i, s := range syms.forAddr(addr) {
				if i != 0 {
					sym += " "
				}
				sym += s.String()
			}
		}
	}
	kind := "       "
	switch k {
	case umpk80.BreakState:
		kind = "[break]"
	case umpk80.PauseState:
		kind = "[pause]"
	case umpk80.HaltState:
		kind = "[HALT!]"
	}
	return fmt.Sprintf("%.4x %- 12s %s %s%s\n%v\nstep: %v\n",
		m.PC, text, kind, pcSym, sym, m, t.State())
}

func (d *debugger) watchContent(m *i8080.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if s := d.brk; s != nil {
		fmt.Fprintf(&b, "%s [%.4x] brk!\n", s.label, s.addr)
	}
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%.4x] ", w.label, w.addr)
		if w.word {
			fmt.Fprintf(&b, "%.2x%.2x", m.Bus.Read(w.addr+1), m.Bus.Read(w.addr))
		} else {
			fmt.Fprintf(&b, "  %.2x", m.Bus.Read(w.addr))
		}
	}
	return b.String()
}
