// Package serialtest provides an in-memory serial.Conn that records writes
// and replays scripted replies, so device adapters and the orchestrator can
// be exercised without hardware.
package serialtest

import "github.com/jt05610/liquidhandler/comm/serial"

type Conn struct {
	// Writes holds everything written to the port, in order.
	Writes []string
	// DefaultReply is returned by ReadLine once scripted replies run out.
	DefaultReply string
	// Drains counts Drain calls.
	Drains int

	replies []string
}

var _ serial.Conn = (*Conn)(nil)

// Script queues replies to be returned by subsequent ReadLine calls, in
// order, before DefaultReply takes over.
func (c *Conn) Script(lines ...string) {
	c.replies = append(c.replies, lines...)
}

func (c *Conn) Write(msg string) {
	c.Writes = append(c.Writes, msg)
}

func (c *Conn) ReadLine(delim string) string {
	if len(c.replies) > 0 {
		line := c.replies[0]
		c.replies = c.replies[1:]
		return line
	}
	return c.DefaultReply
}

func (c *Conn) ReadLineSilent(delim string) string {
	return c.ReadLine(delim)
}

func (c *Conn) Drain() {
	c.Drains++
}
