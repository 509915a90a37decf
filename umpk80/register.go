package umpk80

// Register is a one-byte latch that can be read and written through a port.
type Register struct {
	v byte
}

func (r *Register) ReadPort() byte   { return r.v }
func (r *Register) WritePort(v byte) { r.v = v }

// StepControl arms the single-step trap on any write.
type StepControl struct {
	armed bool
}

func (s *StepControl) WritePort(byte) { s.armed = true }
