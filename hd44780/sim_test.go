package hd44780

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errSimFailure = errors.New("sim: injected failure")

type simWrite struct {
	mask byte
	data byte
}

// simController models the parts of an HD44780 the driver talks to. It
// latches nibbles on the falling edge of its Enable line and starts in 8-bit
// mode like a controller after power on.
type simController struct {
	fourBit   bool
	half      bool
	pending   byte
	ddram     [128]byte
	cgram     [64]byte
	addr      byte
	cg        bool
	display   byte
	busy      bool
	readPhase int

	commands []byte
	// commandTimes[i] is when commands[i] was latched
	commandTimes []time.Time
	data         []byte
}

func newSimController() *simController {
	c := &simController{}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	return c
}

func (c *simController) nibble(rs bool, n byte) {
	c.readPhase = 0
	if !c.fourBit {
		c.receive(rs, n<<4)
		return
	}
	if !c.half {
		c.pending = n
		c.half = true
		return
	}
	c.half = false
	c.receive(rs, c.pending<<4|n)
}

func (c *simController) receive(rs bool, v byte) {
	if rs {
		c.data = append(c.data, v)
		if c.cg {
			c.cgram[c.addr] = v
			c.addr = (c.addr + 1) & 0x3F
			return
		}
		c.ddram[c.addr] = v
		c.addr = (c.addr + 1) & 0x7F
		return
	}
	c.commands = append(c.commands, v)
	c.commandTimes = append(c.commandTimes, time.Now())
	switch {
	case v&0x80 != 0:
		c.addr = v & 0x7F
		c.cg = false
	case v&0x40 != 0:
		c.addr = v & 0x3F
		c.cg = true
	case v&0x20 != 0:
		c.fourBit = v&0x10 == 0
		c.half = false
	case v&0x10 != 0:
	case v&0x08 != 0:
		c.display = v & 0x07
	case v&0x04 != 0:
	case v&0x02 != 0:
		c.addr = 0
		c.cg = false
	case v == 0x01:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.addr = 0
		c.cg = false
	}
}

func (c *simController) status() byte {
	s := c.addr & 0x7F
	if c.busy {
		s |= statusBusy
	}
	return s
}

// simPort is a Port backed by one or two simulated controllers wired
// according to pins. Decoding is done pin by pin without the driver's helpers.
type simPort struct {
	mx     sync.Mutex
	pins   PinMap
	value  byte
	ctrl   [2]*simController
	writes []simWrite
	// failAt makes the n-th write (1 based) and every later one fail; 0
	// disables injection
	failAt int
	opened int
	closed int
}

func newSimPort(pins PinMap) *simPort {
	return &simPort{
		pins: pins,
		ctrl: [2]*simController{newSimController(), newSimController()},
	}
}

func (s *simPort) opener() Opener {
	return func(ctx context.Context) (Port, error) {
		s.mx.Lock()
		defer s.mx.Unlock()
		s.opened++
		return s, nil
	}
}

func pinBit(pin int) byte {
	if pin == NoPin {
		return 0
	}
	return 1 << pin
}

func (s *simPort) decode(value byte) byte {
	var n byte
	for i, pin := range s.pins.Data {
		if value&pinBit(pin) != 0 {
			n |= 1 << i
		}
	}
	return n
}

func (s *simPort) encode(n byte) byte {
	var v byte
	for i, pin := range s.pins.Data {
		if n&(1<<i) != 0 {
			v |= pinBit(pin)
		}
	}
	return v
}

func (s *simPort) WriteMasked(ctx context.Context, mask, data byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.failAt > 0 && len(s.writes)+1 >= s.failAt {
		return errSimFailure
	}
	s.writes = append(s.writes, simWrite{mask: mask, data: data})
	old := s.value
	s.value = (old & mask) | (data &^ mask)
	s.strobe(old, s.value)
	return nil
}

func (s *simPort) strobe(old, updated byte) {
	if old&pinBit(s.pins.RW) != 0 {
		return
	}
	for i, pin := range []int{s.pins.E, s.pins.E2} {
		en := pinBit(pin)
		if en == 0 {
			continue
		}
		if old&en != 0 && updated&en == 0 {
			s.ctrl[i].nibble(old&pinBit(s.pins.RS) != 0, s.decode(old))
		}
	}
}

func (s *simPort) SetPin(ctx context.Context, pin int, state bool) error {
	if state {
		return s.WriteMasked(ctx, ^pinBit(pin), pinBit(pin))
	}
	return s.WriteMasked(ctx, ^pinBit(pin), 0)
}

func (s *simPort) ReadInput(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.failAt > 0 && len(s.writes)+1 >= s.failAt {
		return 0, errSimFailure
	}
	if s.value&pinBit(s.pins.RW) == 0 {
		return s.value, nil
	}
	for i, pin := range []int{s.pins.E, s.pins.E2} {
		en := pinBit(pin)
		if en == 0 || s.value&en == 0 {
			continue
		}
		c := s.ctrl[i]
		status := c.status()
		n := status >> 4
		if c.readPhase == 1 {
			n = status & 0x0F
		}
		c.readPhase ^= 1
		return (s.value &^ s.encode(0x0F)) | s.encode(n), nil
	}
	return s.value, nil
}

func (s *simPort) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.closed++
	return nil
}

func (s *simPort) setFailAt(n int) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.failAt = n
}

func (s *simPort) writeCount() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return len(s.writes)
}

func (s *simPort) current() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.value
}

// commands returns the commands controller [1:2] received.
func (s *simPort) commands(controller int) []byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]byte(nil), s.ctrl[controller-1].commands...)
}

func (s *simPort) text(controller int, addr byte, n int) string {
	s.mx.Lock()
	defer s.mx.Unlock()
	return string(s.ctrl[controller-1].ddram[addr : int(addr)+n])
}

func (s *simPort) glyph(controller int, address int) [8]byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	var g [8]byte
	copy(g[:], s.ctrl[controller-1].cgram[address:address+8])
	return g
}

func (s *simPort) commandTimes(controller int) []time.Time {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]time.Time(nil), s.ctrl[controller-1].commandTimes...)
}
