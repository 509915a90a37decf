package i8080

import "fmt"

// Op represents an 8080 opcode.
type Op byte

// Len returns the length in bytes of the instruction introduced by op,
// including the opcode itself.
func (o Op) Len() int { return int(opLens[o]) }

// Reg returns the source register field (bits 0-2) of op.
func (o Op) Reg() byte { return byte(o) & 0x07 }

// Dst returns the destination register field (bits 3-5) of op.
// The same field selects the ALU operation, condition or restart vector.
func (o Op) Dst() byte { return byte(o) >> 3 & 0x07 }

// Pair returns the register pair field (bits 4-5) of op.
func (o Op) Pair() byte { return byte(o) >> 4 & 0x03 }

// Alias returns the documented opcode that o behaves as. Documented opcodes
// return themselves.
func (o Op) Alias() Op {
	switch o {
	case 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38:
		return NOP
	case 0xcb:
		return JMP
	case 0xd9:
		return RET
	case 0xdd, 0xed, 0xfd:
		return CALL
	}
	return o
}

// Undocumented reports whether o is one of the duplicate opcodes that
// mirror a documented instruction.
func (o Op) Undocumented() bool { return o.Alias() != o }

func (o Op) String() string { return opNames[o] }

// Opcodes that are decoded by value rather than by bit field.
const (
	NOP  Op = 0x00
	SHLD Op = 0x22
	STA  Op = 0x32
	LHLD Op = 0x2a
	LDA  Op = 0x3a
	RLC  Op = 0x07
	RRC  Op = 0x0f
	RAL  Op = 0x17
	RAR  Op = 0x1f
	DAA  Op = 0x27
	CMA  Op = 0x2f
	STC  Op = 0x37
	CMC  Op = 0x3f
	HLT  Op = 0x76
	JMP  Op = 0xc3
	RET  Op = 0xc9
	CALL Op = 0xcd
	OUT  Op = 0xd3
	IN   Op = 0xdb
	XTHL Op = 0xe3
	PCHL Op = 0xe9
	XCHG Op = 0xeb
	DI   Op = 0xf3
	SPHL Op = 0xf9
	EI   Op = 0xfb
)

var (
	regNames  = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}
	pairNames = [4]string{"B", "D", "H", "SP"}
	condNames = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	aluNames  = [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
	aluImm    = [8]string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}
	rotNames  = [8]string{"RLC", "RRC", "RAL", "RAR", "DAA", "CMA", "STC", "CMC"}

	opNames [256]string
	opLens  [256]byte
)

func init() {
	for i := range opNames {
		o := Op(i)
		opNames[i], opLens[i] = describe(o.Alias())
		if o.Undocumented() {
			opNames[i] = "*" + opNames[i]
		}
	}
}

// describe returns the mnemonic and length of a documented opcode.
func describe(o Op) (string, byte) {
	r, d, p := regNames[o.Reg()], regNames[o.Dst()], pairNames[o.Pair()]
	switch {
	case o == HLT:
		return "HLT", 1
	case o >= 0x40 && o < 0x80:
		return "MOV " + d + "," + r, 1
	case o >= 0x80 && o < 0xc0:
		return aluNames[o.Dst()] + " " + r, 1
	}
	switch o {
	case NOP:
		return "NOP", 1
	case 0x02, 0x12:
		return "STAX " + p, 1
	case 0x0a, 0x1a:
		return "LDAX " + p, 1
	case SHLD:
		return "SHLD", 3
	case LHLD:
		return "LHLD", 3
	case STA:
		return "STA", 3
	case LDA:
		return "LDA", 3
	case JMP:
		return "JMP", 3
	case CALL:
		return "CALL", 3
	case RET:
		return "RET", 1
	case OUT:
		return "OUT", 2
	case IN:
		return "IN", 2
	case XTHL:
		return "XTHL", 1
	case PCHL:
		return "PCHL", 1
	case XCHG:
		return "XCHG", 1
	case SPHL:
		return "SPHL", 1
	case DI:
		return "DI", 1
	case EI:
		return "EI", 1
	}
	if o < 0x40 {
		switch {
		case o&0x0f == 0x01:
			return "LXI " + p, 3
		case o&0x0f == 0x03:
			return "INX " + p, 1
		case o&0x0f == 0x09:
			return "DAD " + p, 1
		case o&0x0f == 0x0b:
			return "DCX " + p, 1
		case o&0x07 == 0x04:
			return "INR " + d, 1
		case o&0x07 == 0x05:
			return "DCR " + d, 1
		case o&0x07 == 0x06:
			return "MVI " + d, 2
		case o&0x07 == 0x07:
			return rotNames[o.Dst()], 1
		}
	} else {
		switch {
		case o&0x07 == 0x00:
			return "R" + condNames[o.Dst()], 1
		case o&0x07 == 0x02:
			return "J" + condNames[o.Dst()], 3
		case o&0x07 == 0x04:
			return "C" + condNames[o.Dst()], 3
		case o&0x07 == 0x06:
			return aluImm[o.Dst()], 2
		case o&0x07 == 0x07:
			return fmt.Sprintf("RST %d", o.Dst()), 1
		case o&0x0f == 0x01:
			if o.Pair() == 3 {
				return "POP PSW", 1
			}
			return "POP " + p, 1
		case o&0x0f == 0x05:
			if o.Pair() == 3 {
				return "PUSH PSW", 1
			}
			return "PUSH " + p, 1
		}
	}
	panic(fmt.Sprintf("internal error: opcode %.2x not described", byte(o)))
}

// Disassemble returns the assembly text of the instruction at addr and the
// address of the instruction that follows it.
func (m *Machine) Disassemble(addr uint16) (text string, next uint16) {
	op := Op(m.Bus.Read(addr))
	sep := " "
	if a := op.Alias(); a < 0x40 && (a&0x07 == 0x06 || a&0x0f == 0x01) {
		sep = "," // MVI r,d8 and LXI rp,d16
	}
	switch op.Len() {
	case 2:
		text = fmt.Sprintf("%s%s%.2xh", op, sep, m.Bus.Read(addr+1))
	case 3:
		text = fmt.Sprintf("%s%s%.4xh", op, sep, word(m.Bus.Read(addr+2), m.Bus.Read(addr+1)))
	default:
		text = op.String()
	}
	return text, addr + uint16(op.Len())
}
