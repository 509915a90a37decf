package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nf/umpk80/i8080"
)

type symbols []symbol

func (s symbols) forAddr(addr uint16) (ss []symbol) {
	i := sort.Search(len(s), func(i int) bool { return s[i].addr >= addr })
	for ; i < len(s); i++ {
		if s[i].addr != addr {
			break
		}
		ss = append(ss, s[i])
	}
	return ss
}

func (s symbols) withLabelPrefix(p string) (ss []symbol) {
	for _, s := range s {
		if strings.HasPrefix(s.label, p) {
			ss = append(ss, s)
		}
	}
	return ss
}

// resolve returns the symbol labelled arg or, failing that, an unlabelled
// symbol for arg parsed as a hexadecimal address.
func (s symbols) resolve(arg string) (symbol, bool) {
	for _, s := range s {
		if s.label == arg {
			return s, true
		}
	}
	a, err := strconv.ParseUint(strings.TrimSuffix(strings.ToLower(arg), "h"), 16, 16)
	if err != nil {
		return symbol{}, false
	}
	addr := uint16(a)
	if ss := s.forAddr(addr); len(ss) > 0 {
		return ss[0], true
	}
	return symbol{addr: addr, label: fmt.Sprintf("%.4x", addr)}, true
}

type symbol struct {
	addr  uint16
	label string
}

func (s symbol) String() string { return fmt.Sprintf("%s (%.4x)", s.label, s.addr) }

// parseSymbols reads a symbol file. Each line holds a hexadecimal address
// and a label; blank lines and lines starting with ';' or '#' are ignored.
func parseSymbols(symFile string) (symbols, error) {
	f, err := os.Open(symFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSymbols(f)
}

func readSymbols(r io.Reader) (symbols, error) {
	var (
		ss   symbols
		sc   = bufio.NewScanner(r)
		line = 0
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 2 {
			return nil, fmt.Errorf("line %d: want address and label, got %q", line, text)
		}
		a, err := strconv.ParseUint(strings.TrimSuffix(strings.ToLower(f[0]), "h"), 16, 16)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid address %q", line, f[0])
		}
		ss = append(ss, symbol{addr: uint16(a), label: f[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].addr < ss[j].addr
	})
	return ss, nil
}

// addrForOp returns the memory address or port named by the operand of the
// instruction at m.PC, if it has one.
func addrForOp(m *i8080.Machine) (uint16, bool) {
	op := i8080.Op(m.Bus.Read(m.PC)).Alias()
	switch {
	case op == i8080.IN || op == i8080.OUT:
		return uint16(m.Bus.Read(m.PC + 1)), true
	case op.Len() == 3:
		return uint16(m.Bus.Read(m.PC+2))<<8 | uint16(m.Bus.Read(m.PC+1)), true
	}
	return 0, false
}
