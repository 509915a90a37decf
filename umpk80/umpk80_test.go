package umpk80

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nf/umpk80/bus"
)

func newTrainer(t *testing.T, c Config) (*Trainer, *[]Event) {
	t.Helper()
	var events []Event
	c.Trace = func(e Event) { events = append(events, e) }
	tr, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	return tr, &events
}

func load(t *Trainer, addr uint16, b ...byte) {
	for _, v := range b {
		t.Bus().Write(addr, v)
		addr++
	}
}

func ticks(t *Trainer, n int) {
	for i := 0; i < n; i++ {
		t.Tick()
	}
}

func TestLoadOS(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	rom := make([]byte, ROMSize)
	rom[0] = 0x3e // MVI A,42h
	rom[1] = 0x42
	rom[ROMSize-1] = 0x99
	if err := tr.LoadOS(rom); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tr.Bus().Mem[:ROMSize], rom) {
		t.Fatal("ROM region differs from image")
	}
	tr.CPU().PC = 0x1234
	tr.Reset()
	tr.Tick()
	if m := tr.CPU(); m.A != 0x42 || m.PC != 2 {
		t.Errorf("after first tick: %v", m)
	}

	var se *bus.ROMSizeError
	if err := tr.LoadOS(rom[:ROMSize-1]); !errors.As(err, &se) {
		t.Errorf("short image: got %v", err)
	}
}

// stepProgram loads a monitor fragment that enables interrupts and enters
// the trampoline through the step control port, a user program at 0800h,
// and a restart 1 handler that halts.
func stepProgram(tr *Trainer) {
	load(tr, 0x0000,
		0x31, 0x00, 0x10, // LXI SP,1000h
		0xfb,             // EI
		0xc3, 0xd5, 0x0b, // JMP 0bd5h
	)
	load(tr, 0x0008, 0x76) // RST 1: HLT
	load(tr, 0x0bd5,
		0xd3, 0x0e,       // OUT 0eh
		0x00,             // NOP
		0xc3, 0x00, 0x08, // JMP 0800h
	)
	load(tr, 0x0800,
		0x3c, // INR A
		0x3c, // INR A
		0x3c, // INR A
	)
}

func TestStepTrap(t *testing.T) {
	tr, events := newTrainer(t, Config{})
	stepProgram(tr)
	m := tr.CPU()

	ticks(tr, 3)
	if tr.State() != Run || m.PC != 0x0bd5 {
		t.Fatalf("before OUT: state %v, %v", tr.State(), m)
	}
	tr.Tick()
	if tr.State() != Armed {
		t.Fatalf("after OUT 0e: state %v", tr.State())
	}
	tr.Tick()
	if tr.State() != Run {
		t.Errorf("after step: state %v", tr.State())
	}
	if m.A != 1 {
		t.Errorf("user program ran %d instructions, want 1", m.A)
	}
	if m.PC != 0x0008 || m.IE {
		t.Errorf("restart 1 not taken: %v", m)
	}
	if m.SP != 0x0ffe || tr.Bus().Read(0x0ffe) != 0x01 || tr.Bus().Read(0x0fff) != 0x08 {
		t.Errorf("return address not pushed: sp %.4x [%.2x %.2x]",
			m.SP, tr.Bus().Read(0x0ffe), tr.Bus().Read(0x0fff))
	}
	tr.Tick()
	if !m.Halted {
		t.Error("handler did not run")
	}

	want := []Event{{EventArmed, 0x0bd7}, {EventTrap, 0x0801}}
	if len(*events) != len(want) {
		t.Fatalf("events %v, want %v", *events, want)
	}
	for i, e := range *events {
		if e != want[i] {
			t.Errorf("event %d = %v, want %v", i, e, want[i])
		}
	}
}

func TestStepTrapOverEI(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	stepProgram(tr)
	load(tr, 0x0800,
		0xfb, // EI
		0x3c, // INR A
		0x3c, // INR A
	)
	m := tr.CPU()

	ticks(tr, 5)
	if m.A != 0 {
		t.Errorf("step over EI ran %d more instructions", m.A)
	}
	if m.PC != 0x0008 {
		t.Errorf("restart 1 not taken after EI: %v", m)
	}
	if _, ok := m.Pending(); ok {
		t.Error("restart 1 left pending")
	}
	if tr.Bus().Read(0x0ffe) != 0x01 || tr.Bus().Read(0x0fff) != 0x08 {
		t.Errorf("stacked PC = %.2x%.2x, want 0801", tr.Bus().Read(0x0fff), tr.Bus().Read(0x0ffe))
	}
}

func TestStepTrapDisarmedByKeys(t *testing.T) {
	for _, c := range []struct {
		key        Key
		pc, nextPC uint16
	}{
		{KeyStop, 0x0008, 0x0009},  // HLT
		{KeyReset, 0x0000, 0x0003}, // LXI SP,1000h
	} {
		t.Run(c.key.String(), func(t *testing.T) {
			tr, _ := newTrainer(t, Config{})
			stepProgram(tr)
			m := tr.CPU()

			ticks(tr, 4)
			if tr.State() != Armed {
				t.Fatalf("state %v, want armed", tr.State())
			}
			tr.PressKey(c.key)
			if tr.State() != Run || m.PC != c.pc {
				t.Fatalf("after %v: state %v, %v", c.key, tr.State(), m)
			}
			tr.Tick()
			if _, ok := m.Pending(); ok {
				t.Errorf("restart left pending after %v", c.key)
			}
			if m.PC != c.nextPC {
				t.Errorf("after %v the next tick ran to %.4x, want %.4x", c.key, m.PC, c.nextPC)
			}
		})
	}
}

func TestStepTrapMasked(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	stepProgram(tr)
	load(tr, 0x0003, 0x00) // NOP in place of EI
	m := tr.CPU()

	ticks(tr, 5)
	if m.PC != 0x0801 || m.A != 1 {
		t.Fatalf("after step: %v", m)
	}
	if v, ok := m.Pending(); !ok || v != StopVector {
		t.Fatalf("restart 1 not pending: %v %v", v, ok)
	}
	tr.Tick()
	if m.A != 2 || m.PC != 0x0802 {
		t.Errorf("masked restart stopped the program: %v", m)
	}
}

func TestStepTrapOtherTrampoline(t *testing.T) {
	tr, _ := newTrainer(t, Config{Trampoline: 0x0400})
	load(tr, 0x0000,
		0x31, 0x00, 0x10, // LXI SP,1000h
		0xfb,             // EI
		0xd3, 0x0e,       // OUT 0eh
		0x00,             // NOP
		0xc3, 0x00, 0x08, // JMP 0800h
	)
	load(tr, 0x0800, 0x3c, 0x3c)
	m := tr.CPU()

	ticks(tr, 3)
	if tr.State() != Armed {
		t.Fatalf("state %v, want armed", tr.State())
	}
	tr.Tick()
	if m.A != 0 || m.PC != 0x0008 {
		t.Errorf("outside the trampoline the step ran more than one instruction: %v", m)
	}
}

func TestKeyboardPort(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	load(tr, 0x0000,
		0xdb, 0x06, // IN 06h
		0x47,       // MOV B,A
		0xdb, 0x06, // IN 06h
		0x4f,       // MOV C,A
		0xdb, 0x06, // IN 06h
	)
	m := tr.CPU()

	tr.PressKey(KeyA)
	ticks(tr, 3)
	tr.ReleaseKey(Key5) // not the latched key
	tr.Tick()
	tr.ReleaseKey(KeyA)
	tr.Tick()
	if m.B != 0x0a || m.C != 0x0a || m.A != NoKey {
		t.Errorf("reads %.2x %.2x %.2x, want 0a 0a ff", m.B, m.C, m.A)
	}
}

func TestStopResetKeys(t *testing.T) {
	tr, events := newTrainer(t, Config{})
	load(tr, 0x0100, 0xf3, 0x00, 0x00) // DI; NOP; NOP
	m := tr.CPU()
	m.PC, m.SP = 0x0100, 0x2000

	ticks(tr, 2)
	tr.PressKey(KeyStop)
	if m.PC != 0x0008 || m.SP != 0x1ffe {
		t.Errorf("stop with interrupts disabled: %v", m)
	}
	tr.ReleaseKey(KeyStop)
	tr.PressKey(KeyReset)
	if m.PC != 0x0000 || m.SP != 0x1ffc {
		t.Errorf("reset: %v", m)
	}
	tr.ReleaseKey(KeyReset)
	if tr.Bus().In(0x06) != NoKey {
		t.Error("stop or reset reached the keyboard latch")
	}
	if len(*events) != 2 || (*events)[0].Kind != EventStop || (*events)[1].Kind != EventRestart {
		t.Errorf("events %v", *events)
	}
}

func TestDisplay(t *testing.T) {
	for _, c := range []struct {
		name  string
		ports PortMap
	}{
		{"umpk80", PortsUMPK80},
		{"old", PortsOld},
	} {
		t.Run(c.name, func(t *testing.T) {
			tr, _ := newTrainer(t, Config{Ports: c.ports})
			scan, disp := byte(c.ports.Scan), byte(c.ports.Display)
			load(tr, 0x0000,
				0x3e, 0xfb, // MVI A,fbh
				0xd3, scan, // OUT scan
				0x3e, 0x3f, // MVI A,3fh
				0xd3, disp, // OUT display
				0x3e, 0xdf, // MVI A,dfh
				0xd3, scan, // OUT scan
				0x3e, 0x06, // MVI A,06h
				0xd3, disp, // OUT display
				0x3e, 0xff, // MVI A,ffh
				0xd3, scan, // OUT scan
				0xd3, disp, // OUT display
			)
			ticks(tr, 11)
			want := [NumDigits]byte{0, 0, 0x3f, 0, 0, 0x06}
			if g := tr.Digits(); g != want {
				t.Errorf("digits %x, want %x", g, want)
			}
			if g := tr.DisplayDigit(2); g != 0x3f {
				t.Errorf("DisplayDigit(2) = %.2x", g)
			}
			if g := tr.DisplayDigit(NumDigits); g != 0 {
				t.Errorf("DisplayDigit(%d) = %.2x, want 0", NumDigits, g)
			}
		})
	}
}

func TestGeneralPurposePort(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	load(tr, 0x0000,
		0xdb, 0x05, // IN 05h
		0x2f,       // CMA
		0xd3, 0x05, // OUT 05h
		0xd3, 0x04, // OUT 04h
	)
	tr.SetInput(0x5a)
	ticks(tr, 4)
	if tr.Output() != 0xa5 || tr.Speaker() != 0xa5 {
		t.Errorf("output %.2x speaker %.2x, want a5 a5", tr.Output(), tr.Speaker())
	}
	if tr.Input() != 0x5a {
		t.Errorf("OUT 05 changed the input latch to %.2x", tr.Input())
	}
}

func TestOldBoardUnbound(t *testing.T) {
	tr, _ := newTrainer(t, Config{Ports: PortsOld})
	for _, n := range []byte{0x04, 0x05, 0x06, 0x07} {
		if r, w := tr.Bus().Port(n); r != nil || w != nil {
			t.Errorf("port %.2x bound on the old board", n)
		}
	}
	if tr.Bus().In(0x18) != NoKey {
		t.Error("keyboard not on port 18")
	}
}

func TestPortConflict(t *testing.T) {
	p := PortsUMPK80
	p.Keyboard = p.IO
	_, err := New(Config{Ports: p})
	var be *bus.BindError
	if !errors.As(err, &be) || be.Port != 0x05 {
		t.Errorf("conflicting readers: got %v", err)
	}

	p = PortsUMPK80
	p.Scan = 0x100
	if _, err := New(Config{Ports: p}); err == nil {
		t.Error("out of range port accepted")
	}
}

func TestReset(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	stepProgram(tr)
	ticks(tr, 4)
	tr.PressKey(Key1)
	tr.Reset()
	if tr.State() != Run || tr.CPU().PC != 0 || tr.Bus().In(0x06) != NoKey {
		t.Errorf("after reset: state %v, %v", tr.State(), tr.CPU())
	}
	if tr.Bus().Read(0x0bd5) != 0xd3 {
		t.Error("reset cleared memory")
	}
}

func TestConfigDefaults(t *testing.T) {
	tr, _ := newTrainer(t, Config{})
	if c := tr.cfg; c.Ports != PortsUMPK80 || c.Trampoline != DefaultTrampoline || c.ROMSize != ROMSize {
		t.Errorf("zero Config built %+v", c)
	}
	tr, _ = newTrainer(t, Config{Ports: PortsOld, Trampoline: 0x0400, ROMSize: 0x1000})
	if c := tr.cfg; c.Ports != PortsOld || c.Trampoline != 0x0400 || c.ROMSize != 0x1000 {
		t.Errorf("explicit Config changed to %+v", c)
	}
	if g := tr.Bus().ROMSize(); g != 0x1000 {
		t.Errorf("bus ROM size %#x, want 0x1000", g)
	}
}
