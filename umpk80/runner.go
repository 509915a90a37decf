package umpk80

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Frontend selects how a Runner presents the front panel.
type Frontend int

const (
	NoFrontend Frontend = iota // headless; run until Debug("exit")
	GUIFrontend
	TermFrontend
)

// DefaultIPS is the default instruction rate, close to a 2 MHz 8080.
const DefaultIPS = 300000

const fps = 60

// StateKind says why a StateFunc is being called.
type StateKind int

const (
	ClearState StateKind = iota // execution resumed
	QuietState                  // periodic refresh while running
	BreakState                  // breakpoint reached
	PauseState                  // paused or single stepped by the debugger
	HaltState                   // CPU executed HLT
)

func (k StateKind) String() string {
	switch k {
	case ClearState:
		return "clear"
	case QuietState:
		return "quiet"
	case BreakState:
		return "break"
	case PauseState:
		return "pause"
	case HaltState:
		return "halt"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// StateFunc is called from the Runner's execution goroutine. The Trainer
// must not be retained or used after the call returns.
type StateFunc func(*Trainer, StateKind)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Config   Config
	Frontend Frontend
	Dev      bool // accept Swap
	IPS      int  // instructions per second; DefaultIPS if zero
	State    StateFunc
}

// Panel is a snapshot of the front panel.
type Panel struct {
	Digits  [NumDigits]byte
	State   State
	Halted  bool
	Paused  bool
	Speaker byte
	Output  byte
}

// Runner drives a Trainer in real time on its own goroutine. Host input and
// debugger commands are passed in over channels and applied between
// instructions.
type Runner struct {
	opts RunnerOptions

	keys  chan keyEvent
	swap  chan []byte
	debug chan debugCmd

	done     chan struct{}
	doneOnce sync.Once

	mu    sync.Mutex
	panel Panel
}

type keyEvent struct {
	key   Key
	press bool
}

type debugCmd struct {
	cmd  string
	addr uint16
}

func NewRunner(opts RunnerOptions) *Runner {
	if opts.IPS <= 0 {
		opts.IPS = DefaultIPS
	}
	return &Runner{
		opts:  opts,
		keys:  make(chan keyEvent, 64),
		swap:  make(chan []byte),
		debug: make(chan debugCmd, 16),
		done:  make(chan struct{}),
	}
}

// Run builds a Trainer, loads rom as its monitor, and runs it until the
// front panel is closed or the "exit" debug command is received.
func (r *Runner) Run(rom []byte) error {
	t, err := New(r.opts.Config)
	if err != nil {
		return err
	}
	if err := t.LoadOS(rom); err != nil {
		return err
	}
	execDone := make(chan bool)
	go func() {
		r.exec(t)
		close(execDone)
	}()
	switch r.opts.Frontend {
	case GUIFrontend:
		err = r.runGUI()
	case TermFrontend:
		err = r.runTerm()
	default:
		<-r.done
	}
	r.stop()
	<-execDone
	return err
}

// Swap replaces the monitor image and resets the board. It may only be
// used in dev mode.
func (r *Runner) Swap(rom []byte) {
	if !r.opts.Dev {
		panic("Swap called while not running in dev mode")
	}
	select {
	case r.swap <- rom:
	case <-r.done:
	}
}

// Debug sends a command to the execution goroutine. Commands are
// "break" (stop at addr), "clear", "pause", "continue", "step", "stop",
// "restart", "key" (tap the key whose code is addr), "ports" (log the
// port bindings) and "exit".
func (r *Runner) Debug(cmd string, addr uint16) {
	select {
	case r.debug <- debugCmd{cmd, addr}:
	case <-r.done:
	}
}

// PressKey and ReleaseKey pass front panel key events to the Trainer.
func (r *Runner) PressKey(k Key)   { r.sendKey(keyEvent{k, true}) }
func (r *Runner) ReleaseKey(k Key) { r.sendKey(keyEvent{k, false}) }

// keyHold is how long a tapped key is held down.
const keyHold = 100 * time.Millisecond

// tapKey presses k and releases it after keyHold, for hosts that do not
// report key releases.
func (r *Runner) tapKey(k Key) {
	r.PressKey(k)
	time.AfterFunc(keyHold, func() { r.ReleaseKey(k) })
}

func (r *Runner) sendKey(e keyEvent) {
	select {
	case r.keys <- e:
	case <-r.done:
	}
}

// Panel returns the most recently published front panel state.
func (r *Runner) Panel() Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel
}

func (r *Runner) stop() { r.doneOnce.Do(func() { close(r.done) }) }

func (r *Runner) report(t *Trainer, k StateKind) {
	if r.opts.State != nil {
		r.opts.State(t, k)
	}
}

func (r *Runner) exec(t *Trainer) {
	tick := time.NewTicker(time.Second / fps)
	defer tick.Stop()

	var (
		perFrame = r.opts.IPS / fps
		brk      uint16
		hasBrk   bool
		paused   bool
		halted   bool
		frame    int
	)
	if perFrame < 1 {
		perFrame = 1
	}
	for {
		select {
		case <-r.done:
			return

		case e := <-r.keys:
			if e.press {
				t.PressKey(e.key)
			} else {
				t.ReleaseKey(e.key)
			}

		case rom := <-r.swap:
			if err := t.LoadOS(rom); err != nil {
				log.Printf("swap: %v", err)
				break
			}
			t.Reset()
			halted = false
			r.report(t, ClearState)

		case c := <-r.debug:
			switch c.cmd {
			case "break":
				brk, hasBrk = c.addr, true
			case "clear":
				hasBrk = false
			case "pause":
				paused = true
				r.report(t, PauseState)
			case "continue":
				paused = false
				r.report(t, ClearState)
			case "step":
				if paused {
					t.Tick()
				}
				paused = true
				r.report(t, PauseState)
			case "stop":
				t.Stop()
				r.report(t, QuietState)
			case "restart":
				t.Restart()
				r.report(t, QuietState)
			case "key":
				k := Key(c.addr)
				t.PressKey(k)
				time.AfterFunc(keyHold, func() { r.ReleaseKey(k) })
			case "ports":
				for _, l := range describeBoard(t) {
					log.Print(l)
				}
			case "exit":
				r.stop()
				return
			default:
				log.Printf("unknown debug command %q", c.cmd)
			}

		case <-tick.C:
			frame++
			if !paused {
				for i := 0; i < perFrame; i++ {
					t.Tick()
					if hasBrk && t.cpu.PC == brk {
						paused = true
						r.report(t, BreakState)
						break
					}
				}
			}
			if h := t.cpu.Halted; h != halted {
				halted = h
				if h {
					r.report(t, HaltState)
				} else {
					r.report(t, ClearState)
				}
			} else if !paused && frame%(fps/10) == 0 {
				r.report(t, QuietState)
			}
			r.publish(t, paused)
		}
	}
}

func (r *Runner) publish(t *Trainer, paused bool) {
	p := Panel{
		Digits:  t.Digits(),
		State:   t.State(),
		Halted:  t.cpu.Halted,
		Paused:  paused,
		Speaker: t.Speaker(),
		Output:  t.Output(),
	}
	r.mu.Lock()
	r.panel = p
	r.mu.Unlock()
}

// describeBoard lists the ROM region and the peripherals bound to each port.
func describeBoard(t *Trainer) []string {
	b := t.bus
	lines := []string{fmt.Sprintf("rom %.4x-%.4x", 0, b.ROMSize()-1)}
	for n := 0; n < 256; n++ {
		rd, wr := b.Port(byte(n))
		if rd == nil && wr == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("port %.2x: in %s out %s", n, devName(rd), devName(wr)))
	}
	return lines
}

func devName(v any) string {
	if v == nil {
		return "-"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*umpk80.")
}
