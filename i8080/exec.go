// Package i8080 provides an implementation of an Intel 8080 CPU, called
// Machine, that executes one instruction at a time against a Bus.
package i8080

import "fmt"

// Machine is an implementation of an 8080 CPU.
type Machine struct {
	A, B, C, D, E, H, L byte

	PC, SP uint16
	Flags  Flags
	IE     bool // interrupt enable
	Halted bool

	Bus Bus

	pending    byte // restart vector of an unserviced Interrupt
	hasPending bool
	eiDelay    bool // EI executed by the previous instruction
}

// Bus provides the CPU with access to memory and to the I/O port space.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	In(port byte) byte
	Out(port, v byte)
}

// New returns a Machine in its reset state attached to bus.
func New(bus Bus) *Machine {
	return &Machine{Bus: bus}
}

// Reset reinitializes the registers: PC and SP are zeroed, flags and the
// interrupt enable are cleared and any pending restart is dropped. Memory is
// not touched.
func (m *Machine) Reset() {
	*m = Machine{Bus: m.Bus}
}

// Tick executes exactly one instruction. If a restart requested by Interrupt
// is pending and interrupts are enabled, the restart is serviced instead.
// A halted machine does nothing until a restart arrives.
func (m *Machine) Tick() {
	if m.hasPending && m.IE && !m.eiDelay {
		m.service()
		return
	}
	if m.Halted {
		return
	}
	delay := m.eiDelay
	m.exec(Op(m.fetch()))
	if delay {
		m.eiDelay = false
	}
}

// Interrupt requests a maskable restart to address vector*8. It is serviced
// at once if interrupts are enabled, and otherwise stays pending until a
// later Tick finds them enabled. Servicing disables interrupts.
func (m *Machine) Interrupt(vector byte) {
	m.pending, m.hasPending = vector&0x07, true
	if m.IE && !m.eiDelay {
		m.service()
	}
}

// Trap requests a maskable restart like Interrupt, but is not held off by
// an EI executed in the previous instruction. It still waits for IE.
func (m *Machine) Trap(vector byte) {
	m.eiDelay = false
	m.Interrupt(vector)
}

// Pending reports the vector of a requested restart that has not been
// serviced yet.
func (m *Machine) Pending() (vector byte, ok bool) {
	return m.pending, m.hasPending
}

// ForceRestart drives the reset line: the current PC is pushed and execution
// continues at vector*8 regardless of the interrupt enable. Interrupts are
// disabled and any pending maskable restart is dropped.
func (m *Machine) ForceRestart(vector byte) {
	m.hasPending = false
	m.eiDelay = false
	m.rst(vector & 0x07)
}

func (m *Machine) service() {
	m.hasPending = false
	m.rst(m.pending)
}

func (m *Machine) rst(vector byte) {
	m.push(m.PC)
	m.PC = uint16(vector) * 8
	m.IE = false
	m.Halted = false
}

func (m *Machine) exec(op Op) {
	switch op = op.Alias(); {
	case op == HLT:
		m.Halted = true
	case op >= 0x40 && op < 0x80: // MOV
		m.setReg(op.Dst(), m.reg(op.Reg()))
	case op >= 0x80 && op < 0xc0:
		m.alu(op.Dst(), m.reg(op.Reg()))
	case op < 0x40:
		m.execLow(op)
	default:
		m.execHigh(op)
	}
}

// execLow executes opcodes 0x00-0x3f.
func (m *Machine) execLow(op Op) {
	switch op {
	case NOP:
		return
	case 0x02, 0x12: // STAX
		m.write(m.pair(op.Pair()), m.A)
		return
	case 0x0a, 0x1a: // LDAX
		m.A = m.read(m.pair(op.Pair()))
		return
	case SHLD:
		addr := m.fetchWord()
		m.write(addr, m.L)
		m.write(addr+1, m.H)
		return
	case LHLD:
		addr := m.fetchWord()
		m.L = m.read(addr)
		m.H = m.read(addr + 1)
		return
	case STA:
		m.write(m.fetchWord(), m.A)
		return
	case LDA:
		m.A = m.read(m.fetchWord())
		return
	}
	switch {
	case op&0x0f == 0x01: // LXI
		m.setPair(op.Pair(), m.fetchWord())
	case op&0x0f == 0x03: // INX
		m.setPair(op.Pair(), m.pair(op.Pair())+1)
	case op&0x0f == 0x0b: // DCX
		m.setPair(op.Pair(), m.pair(op.Pair())-1)
	case op&0x0f == 0x09: // DAD
		r := uint32(m.pair(2)) + uint32(m.pair(op.Pair()))
		m.Flags.set(FlagCY, r > 0xffff)
		m.setPair(2, uint16(r))
	case op&0x07 == 0x04: // INR
		v := m.reg(op.Dst()) + 1
		m.Flags.set(FlagAC, v&0x0f == 0)
		m.Flags.setSZP(v)
		m.setReg(op.Dst(), v)
	case op&0x07 == 0x05: // DCR
		v := m.reg(op.Dst()) - 1
		m.Flags.set(FlagAC, v&0x0f != 0x0f)
		m.Flags.setSZP(v)
		m.setReg(op.Dst(), v)
	case op&0x07 == 0x06: // MVI
		m.setReg(op.Dst(), m.fetch())
	default:
		m.rotate(op)
	}
}

// rotate executes the accumulator and carry group RLC..CMC.
func (m *Machine) rotate(op Op) {
	cy := m.Flags.Has(FlagCY)
	switch op {
	case RLC:
		m.Flags.set(FlagCY, m.A&0x80 != 0)
		m.A = m.A<<1 | m.A>>7
	case RRC:
		m.Flags.set(FlagCY, m.A&0x01 != 0)
		m.A = m.A>>1 | m.A<<7
	case RAL:
		m.Flags.set(FlagCY, m.A&0x80 != 0)
		m.A = m.A<<1 | bit(cy)
	case RAR:
		m.Flags.set(FlagCY, m.A&0x01 != 0)
		m.A = m.A>>1 | bit(cy)<<7
	case DAA:
		var (
			fix byte
			lo  = m.A & 0x0f
			hi  = m.A >> 4
		)
		if m.Flags.Has(FlagAC) || lo > 9 {
			fix |= 0x06
		}
		if cy || hi > 9 || hi >= 9 && lo > 9 {
			fix |= 0x60
			cy = true
		}
		m.A = m.add(m.A, fix, 0)
		m.Flags.set(FlagCY, cy)
	case CMA:
		m.A = ^m.A
	case STC:
		m.Flags.set(FlagCY, true)
	case CMC:
		m.Flags.set(FlagCY, !cy)
	}
}

// execHigh executes opcodes 0xc0-0xff.
func (m *Machine) execHigh(op Op) {
	switch op {
	case JMP:
		m.PC = m.fetchWord()
	case CALL:
		m.call(m.fetchWord())
	case RET:
		m.PC = m.pop()
	case OUT:
		m.Bus.Out(m.fetch(), m.A)
	case IN:
		m.A = m.Bus.In(m.fetch())
	case XTHL:
		l, h := m.read(m.SP), m.read(m.SP+1)
		m.write(m.SP, m.L)
		m.write(m.SP+1, m.H)
		m.L, m.H = l, h
	case PCHL:
		m.PC = m.pair(2)
	case XCHG:
		m.D, m.E, m.H, m.L = m.H, m.L, m.D, m.E
	case SPHL:
		m.SP = m.pair(2)
	case DI:
		m.IE = false
	case EI:
		m.IE = true
		m.eiDelay = true
	default:
		switch {
		case op&0x07 == 0x00: // Rcc
			if m.cond(op.Dst()) {
				m.PC = m.pop()
			}
		case op&0x07 == 0x02: // Jcc
			if addr := m.fetchWord(); m.cond(op.Dst()) {
				m.PC = addr
			}
		case op&0x07 == 0x04: // Ccc
			if addr := m.fetchWord(); m.cond(op.Dst()) {
				m.call(addr)
			}
		case op&0x07 == 0x06: // ALU immediate
			m.alu(op.Dst(), m.fetch())
		case op&0x07 == 0x07: // RST
			m.push(m.PC)
			m.PC = uint16(op.Dst()) * 8
		case op&0x0f == 0x01: // POP
			v := m.pop()
			if op.Pair() == 3 {
				m.A, m.Flags = byte(v>>8), Flags(v)&flagMask
			} else {
				m.setPair(op.Pair(), v)
			}
		case op&0x0f == 0x05: // PUSH
			if op.Pair() == 3 {
				m.push(word(m.A, m.Flags.PSW()))
			} else {
				m.push(m.pair(op.Pair()))
			}
		}
	}
}

func (m *Machine) cond(c byte) bool {
	var f bool
	switch c >> 1 {
	case 0:
		f = m.Flags.Has(FlagZ)
	case 1:
		f = m.Flags.Has(FlagCY)
	case 2:
		f = m.Flags.Has(FlagP)
	case 3:
		f = m.Flags.Has(FlagS)
	}
	return f == (c&1 == 1)
}

// alu performs ADD, ADC, SUB, SBB, ANA, XRA, ORA or CMP of v with A.
func (m *Machine) alu(fn, v byte) {
	cy := bit(m.Flags.Has(FlagCY))
	switch fn {
	case 0:
		m.A = m.add(m.A, v, 0)
	case 1:
		m.A = m.add(m.A, v, cy)
	case 2:
		m.A = m.sub(m.A, v, 0)
	case 3:
		m.A = m.sub(m.A, v, cy)
	case 4:
		m.Flags.set(FlagAC, (m.A|v)&0x08 != 0)
		m.Flags.set(FlagCY, false)
		m.A &= v
		m.Flags.setSZP(m.A)
	case 5:
		m.A ^= v
		m.Flags.set(FlagAC|FlagCY, false)
		m.Flags.setSZP(m.A)
	case 6:
		m.A |= v
		m.Flags.set(FlagAC|FlagCY, false)
		m.Flags.setSZP(m.A)
	case 7:
		m.sub(m.A, v, 0)
	}
}

func (m *Machine) add(a, b, cy byte) byte {
	r := uint16(a) + uint16(b) + uint16(cy)
	m.Flags.set(FlagCY, r > 0xff)
	m.Flags.set(FlagAC, a&0x0f+b&0x0f+cy > 0x0f)
	m.Flags.setSZP(byte(r))
	return byte(r)
}

// sub computes a-b-borrow. The 8080 subtracts by adding the complement, so
// AC reports the carry out of bit 3 of that addition while CY reports the
// borrow.
func (m *Machine) sub(a, b, borrow byte) byte {
	r := uint16(a) - uint16(b) - uint16(borrow)
	m.Flags.set(FlagCY, r > 0xff)
	m.Flags.set(FlagAC, a&0x0f+^b&0x0f+(1-borrow) > 0x0f)
	m.Flags.setSZP(byte(r))
	return byte(r)
}

func (m *Machine) call(addr uint16) {
	m.push(m.PC)
	m.PC = addr
}

func (m *Machine) push(v uint16) {
	m.SP--
	m.write(m.SP, byte(v>>8))
	m.SP--
	m.write(m.SP, byte(v))
}

func (m *Machine) pop() uint16 {
	lo := m.read(m.SP)
	m.SP++
	hi := m.read(m.SP)
	m.SP++
	return word(hi, lo)
}

func (m *Machine) fetch() byte {
	b := m.read(m.PC)
	m.PC++
	return b
}

func (m *Machine) fetchWord() uint16 {
	lo := m.fetch()
	return word(m.fetch(), lo)
}

func (m *Machine) read(addr uint16) byte     { return m.Bus.Read(addr) }
func (m *Machine) write(addr uint16, v byte) { m.Bus.Write(addr, v) }

// reg returns register r in instruction encoding order B C D E H L M A,
// where M is the memory byte addressed by HL.
func (m *Machine) reg(r byte) byte {
	switch r {
	case 0:
		return m.B
	case 1:
		return m.C
	case 2:
		return m.D
	case 3:
		return m.E
	case 4:
		return m.H
	case 5:
		return m.L
	case 6:
		return m.read(m.pair(2))
	default:
		return m.A
	}
}

func (m *Machine) setReg(r, v byte) {
	switch r {
	case 0:
		m.B = v
	case 1:
		m.C = v
	case 2:
		m.D = v
	case 3:
		m.E = v
	case 4:
		m.H = v
	case 5:
		m.L = v
	case 6:
		m.write(m.pair(2), v)
	default:
		m.A = v
	}
}

// pair returns register pair p in instruction encoding order BC DE HL SP.
func (m *Machine) pair(p byte) uint16 {
	switch p {
	case 0:
		return word(m.B, m.C)
	case 1:
		return word(m.D, m.E)
	case 2:
		return word(m.H, m.L)
	default:
		return m.SP
	}
}

func (m *Machine) setPair(p byte, v uint16) {
	switch p {
	case 0:
		m.B, m.C = byte(v>>8), byte(v)
	case 1:
		m.D, m.E = byte(v>>8), byte(v)
	case 2:
		m.H, m.L = byte(v>>8), byte(v)
	default:
		m.SP = v
	}
}

// BC, DE and HL return the register pairs.
func (m *Machine) BC() uint16 { return m.pair(0) }
func (m *Machine) DE() uint16 { return m.pair(1) }
func (m *Machine) HL() uint16 { return m.pair(2) }

func word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) String() string {
	ie := "di"
	if m.IE {
		ie = "ei"
	}
	return fmt.Sprintf("pc %.4x sp %.4x a %.2x bc %.4x de %.4x hl %.4x %v %s",
		m.PC, m.SP, m.A, m.BC(), m.DE(), m.HL(), m.Flags, ie)
}
