package umpk80

import "strings"

// Key identifies a key on the trainer's keypad.
type Key byte

const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyRun    // П, start user program
	KeyStep   // ШГ, single step
	KeyAddr   // А, enter address
	KeyRead   // СЧ, read memory/register
	KeyWrite  // ЗП, write memory/register
	KeyCancel // ОТМ
	KeyStop   // СТ, wired to the restart 1 line
	KeyReset  // Р, wired to the restart 0 line
)

// NoKey is read from the keyboard port while no key is held.
const NoKey byte = 0xff

var keyNames = [...]string{
	"0", "1", "2", "3", "4", "5", "6", "7",
	"8", "9", "a", "b", "c", "d", "e", "f",
	"run", "step", "addr", "read", "write", "cancel", "stop", "reset",
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "?"
}

// ParseKey returns the key named s, as printed by Key.String.
func ParseKey(s string) (Key, bool) {
	s = strings.ToLower(s)
	for i, n := range keyNames {
		if n == s {
			return Key(i), true
		}
	}
	return 0, false
}

// Keyboard latches the most recently pressed key. It is read through an
// input port and has no output side.
type Keyboard struct {
	key   Key
	ready bool
}

// Press latches k, replacing any key still held.
func (kb *Keyboard) Press(k Key) {
	kb.key, kb.ready = k, true
}

// Release clears the latch if k is the latched key.
func (kb *Keyboard) Release(k Key) {
	if kb.ready && kb.key == k {
		kb.ready = false
	}
}

// ReadPort returns the latched key code, or NoKey.
func (kb *Keyboard) ReadPort() byte {
	if !kb.ready {
		return NoKey
	}
	return byte(kb.key)
}
