// Package bus implements the memory and I/O port address spaces that an
// 8080 CPU sees, with peripherals attached to individual ports.
package bus

import "fmt"

// Reader is implemented by peripherals that can be read through an input
// port. ReadPort may have side effects on the peripheral.
type Reader interface {
	ReadPort() byte
}

// Writer is implemented by peripherals that accept bytes written to an
// output port.
type Writer interface {
	WritePort(v byte)
}

// Fill is the value read from a port with no bound Reader.
const Fill byte = 0xff

// Bus holds 64 KiB of memory and a table of 256 I/O ports, each of which may
// have one Reader and one Writer bound to it. Bindings are made while the
// machine is being built; once Seal is called they are fixed.
type Bus struct {
	Mem [0x10000]byte

	ports   [256]port
	romSize int
	sealed  bool
}

type port struct {
	r Reader
	w Writer
}

// New returns an empty Bus whose ROM region is the first romSize bytes.
func New(romSize int) *Bus {
	return &Bus{romSize: romSize}
}

func (b *Bus) Read(addr uint16) byte     { return b.Mem[addr] }
func (b *Bus) Write(addr uint16, v byte) { b.Mem[addr] = v }

// In returns the value of the Reader bound to port n, or Fill if there is
// none.
func (b *Bus) In(n byte) byte {
	if r := b.ports[n].r; r != nil {
		return r.ReadPort()
	}
	return Fill
}

// Out passes v to the Writer bound to port n, if any.
func (b *Bus) Out(n, v byte) {
	if w := b.ports[n].w; w != nil {
		w.WritePort(v)
	}
}

// Port returns the Reader and Writer bound to port n. Either may be nil.
func (b *Bus) Port(n byte) (Reader, Writer) {
	return b.ports[n].r, b.ports[n].w
}

// BindReader binds r to input port n.
func (b *Bus) BindReader(n byte, r Reader) error {
	switch {
	case r == nil:
		return &BindError{Port: n, Dir: "reader", Reason: "nil reader"}
	case b.sealed:
		return &BindError{Port: n, Dir: "reader", Reason: "bus is sealed"}
	case b.ports[n].r != nil:
		return &BindError{Port: n, Dir: "reader", Reason: "already bound"}
	}
	b.ports[n].r = r
	return nil
}

// BindWriter binds w to output port n.
func (b *Bus) BindWriter(n byte, w Writer) error {
	switch {
	case w == nil:
		return &BindError{Port: n, Dir: "writer", Reason: "nil writer"}
	case b.sealed:
		return &BindError{Port: n, Dir: "writer", Reason: "bus is sealed"}
	case b.ports[n].w != nil:
		return &BindError{Port: n, Dir: "writer", Reason: "already bound"}
	}
	b.ports[n].w = w
	return nil
}

// Seal fixes the port bindings; later Bind calls fail.
func (b *Bus) Seal() { b.sealed = true }

// ROMSize returns the size of the ROM region at address 0.
func (b *Bus) ROMSize() int { return b.romSize }

// LoadROM copies img to the start of memory. The image must be exactly
// ROMSize bytes long; otherwise memory is left untouched.
func (b *Bus) LoadROM(img []byte) error {
	if len(img) != b.romSize {
		return &ROMSizeError{Got: len(img), Want: b.romSize}
	}
	copy(b.Mem[:], img)
	return nil
}

// BindError is returned when a port binding is rejected.
type BindError struct {
	Port   byte
	Dir    string // "reader" or "writer"
	Reason string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("binding %s to port %.2x: %s", e.Dir, e.Port, e.Reason)
}

// ROMSizeError is returned by LoadROM for an image of the wrong size.
type ROMSizeError struct {
	Got, Want int
}

func (e *ROMSizeError) Error() string {
	return fmt.Sprintf("rom image is %#x bytes, want %#x", e.Got, e.Want)
}
