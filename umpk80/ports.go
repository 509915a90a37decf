package umpk80

import "fmt"

// ROMSize is the size of the monitor image mapped at address 0.
const ROMSize = 0x800

// DefaultTrampoline is the address of the monitor's NOP; JMP sequence that
// leads into the user program when single stepping.
const DefaultTrampoline = 0x0bd7

// Port is an I/O port number, or NoPort.
type Port int

// NoPort marks a channel that is absent on a board.
const NoPort Port = -1

func (p Port) String() string {
	if p == NoPort {
		return "none"
	}
	return fmt.Sprintf("%.2x", int(p))
}

// PortMap assigns the board's peripheral channels to I/O ports.
type PortMap struct {
	Speaker  Port
	IO       Port
	Keyboard Port // input
	Display  Port // output
	Scan     Port
	Step     Port
}

var (
	// PortsUMPK80 is the port layout of the production board.
	PortsUMPK80 = PortMap{
		Speaker:  0x04,
		IO:       0x05,
		Keyboard: 0x06,
		Display:  0x06,
		Scan:     0x07,
		Step:     0x0e,
	}
	// PortsOld is the layout of the early board, which has no speaker or
	// general purpose port.
	PortsOld = PortMap{
		Speaker:  NoPort,
		IO:       NoPort,
		Keyboard: 0x18,
		Display:  0x38,
		Scan:     0x28,
		Step:     0x0e,
	}
)

// Boards maps board names, as accepted by the -board flag, to port layouts.
var Boards = map[string]PortMap{
	"umpk80": PortsUMPK80,
	"old":    PortsOld,
}
