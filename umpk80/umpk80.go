// Package umpk80 implements the UMPK-80 microprocessor trainer: an 8080 CPU,
// a monitor ROM, the keypad and seven-segment front panel, and the
// single-step trap that the monitor uses to step through user programs.
package umpk80

import (
	"fmt"

	"github.com/nf/umpk80/bus"
	"github.com/nf/umpk80/i8080"
)

// Restart vectors driven by the front panel and the step trap.
const (
	ResetVector = 0
	StopVector  = 1
)

// Config describes how a Trainer is built.
// The zero value selects the production board and the stock monitor. A zero
// field takes its default; the trampoline cannot sit at address 0, which
// holds the reset vector.
type Config struct {
	Ports      PortMap
	Trampoline uint16 // address of the monitor's NOP; JMP into the user program; never 0
	ROMSize    int

	// Trace, if set, is called as the trap controller changes state and
	// when the front panel restart lines are pulled.
	Trace func(Event)
}

// State is the state of the single-step trap controller.
type State int

const (
	Run State = iota
	Armed
)

func (s State) String() string {
	switch s {
	case Run:
		return "run"
	case Armed:
		return "armed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EventKind identifies a trace Event.
type EventKind int

const (
	EventArmed   EventKind = iota // step control written
	EventTrap                     // user instruction executed, restart 1 requested
	EventStop                     // stop key
	EventRestart                  // reset key
)

var eventNames = [...]string{"armed", "trap", "stop", "restart"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event reports a change in the trainer's control state.
// PC is the program counter at the time of the event.
type Event struct {
	Kind EventKind
	PC   uint16
}

func (e Event) String() string { return fmt.Sprintf("%v at %.4x", e.Kind, e.PC) }

// Trainer is an UMPK-80 board. Its methods must be called from a single
// goroutine; see Runner for driving one from a host program.
type Trainer struct {
	cfg Config
	bus *bus.Bus
	cpu *i8080.Machine

	kbd     Keyboard
	scan    Scan
	disp    Display
	in, out Register
	speaker Register
	step    StepControl
}

// maxBootstrap bounds the trampoline instructions run before the user
// instruction when the trap is armed.
const maxBootstrap = 2

// trampolineLen is the length of the NOP; JMP addr trampoline.
const trampolineLen = 4

// New builds a Trainer according to c. The bus is sealed once every present
// channel of c.Ports is bound.
func New(c Config) (*Trainer, error) {
	if c.Ports == (PortMap{}) {
		c.Ports = PortsUMPK80
	}
	if c.Trampoline == 0 {
		c.Trampoline = DefaultTrampoline
	}
	if c.ROMSize == 0 {
		c.ROMSize = ROMSize
	}
	t := &Trainer{cfg: c, bus: bus.New(c.ROMSize)}
	t.cpu = i8080.New(t.bus)
	t.disp.scan = &t.scan

	p := c.Ports
	for _, b := range []struct {
		name string
		port Port
		r    bus.Reader
		w    bus.Writer
	}{
		{"speaker", p.Speaker, nil, &t.speaker},
		{"io", p.IO, &t.in, &t.out},
		{"keyboard", p.Keyboard, &t.kbd, nil},
		{"display", p.Display, nil, &t.disp},
		{"scan", p.Scan, nil, &t.scan},
		{"step", p.Step, nil, &t.step},
	} {
		if b.port == NoPort {
			continue
		}
		if b.port < 0 || b.port > 0xff {
			return nil, fmt.Errorf("%s: invalid port %d", b.name, int(b.port))
		}
		if b.r != nil {
			if err := t.bus.BindReader(byte(b.port), b.r); err != nil {
				return nil, fmt.Errorf("%s: %w", b.name, err)
			}
		}
		if b.w != nil {
			if err := t.bus.BindWriter(byte(b.port), b.w); err != nil {
				return nil, fmt.Errorf("%s: %w", b.name, err)
			}
		}
	}
	t.bus.Seal()
	return t, nil
}

// LoadOS copies the monitor image into the ROM region.
func (t *Trainer) LoadOS(rom []byte) error {
	return t.bus.LoadROM(rom)
}

// Reset puts the board in its power-on state without touching memory.
func (t *Trainer) Reset() {
	t.cpu.Reset()
	t.kbd = Keyboard{}
	t.step = StepControl{}
}

// State reports whether the single-step trap is armed.
func (t *Trainer) State() State {
	if t.step.armed {
		return Armed
	}
	return Run
}

// Tick advances the board. While running it executes one instruction.
// When the trap is armed it finishes the trampoline, executes exactly one
// user instruction, requests restart 1, and returns to running.
func (t *Trainer) Tick() {
	if !t.step.armed {
		t.cpu.Tick()
		if t.step.armed {
			t.trace(EventArmed)
		}
		return
	}
	for i := 0; i < maxBootstrap && t.inTrampoline(); i++ {
		t.cpu.Tick()
	}
	t.cpu.Tick()
	t.step.armed = false
	t.trace(EventTrap)
	t.cpu.Trap(StopVector)
}

func (t *Trainer) inTrampoline() bool {
	return t.cpu.PC-t.cfg.Trampoline < trampolineLen
}

// PressKey presses k. The stop and reset keys pull the CPU's restart lines
// directly; all other keys are latched by the keyboard.
func (t *Trainer) PressKey(k Key) {
	switch k {
	case KeyStop:
		t.Stop()
	case KeyReset:
		t.Restart()
	default:
		t.kbd.Press(k)
	}
}

// ReleaseKey releases k.
func (t *Trainer) ReleaseKey(k Key) {
	switch k {
	case KeyStop, KeyReset:
	default:
		t.kbd.Release(k)
	}
}

// Stop returns control to the monitor through restart 1. An armed step
// trap is dropped.
func (t *Trainer) Stop() {
	t.trace(EventStop)
	t.step = StepControl{}
	t.cpu.ForceRestart(StopVector)
}

// Restart restarts the monitor through restart 0. An armed step trap is
// dropped.
func (t *Trainer) Restart() {
	t.trace(EventRestart)
	t.step = StepControl{}
	t.cpu.ForceRestart(ResetVector)
}

func (t *Trainer) trace(k EventKind) {
	if t.cfg.Trace != nil {
		t.cfg.Trace(Event{Kind: k, PC: t.cpu.PC})
	}
}

// DisplayDigit returns the segment pattern of digit i, or 0 if i is out of
// range.
func (t *Trainer) DisplayDigit(i int) byte { return t.disp.Digit(i) }

// Digits returns the segment patterns of all digits, leftmost first.
func (t *Trainer) Digits() [NumDigits]byte { return t.disp.seg }

// SetInput sets the value read from the general purpose port.
func (t *Trainer) SetInput(v byte) { t.in.WritePort(v) }

// Input returns the value read from the general purpose port.
func (t *Trainer) Input() byte { return t.in.ReadPort() }

// Output returns the last value written to the general purpose port.
func (t *Trainer) Output() byte { return t.out.ReadPort() }

// Speaker returns the last value written to the speaker port.
func (t *Trainer) Speaker() byte { return t.speaker.ReadPort() }

func (t *Trainer) CPU() *i8080.Machine { return t.cpu }
func (t *Trainer) Bus() *bus.Bus       { return t.bus }
