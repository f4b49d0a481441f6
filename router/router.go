// Package router drives the three-axis gantry over its G-code-like serial
// protocol. Every command elicits exactly one reply line; the literal G1:OK
// acknowledges success and anything else is a failure.
package router

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jt05610/liquidhandler/comm/serial"
)

const (
	delim = "\r\n"
	// Ack is the router's acknowledgement for a successfully executed
	// motion command.
	Ack = "G1:OK"
)

type Router struct {
	conn   serial.Conn
	logger *zap.Logger
	// BootDelay is how long Home waits for the boot banner after opening
	// the port.
	BootDelay time.Duration
}

func New(conn serial.Conn, logger *zap.Logger) *Router {
	return &Router{
		conn:      conn,
		logger:    logger,
		BootDelay: 5 * time.Second,
	}
}

// Execute writes cmd, reads exactly one reply line and requires it to be
// Ack. Any other reply fails the command.
func (r *Router) Execute(cmd string) error {
	r.conn.Write(cmd)
	reply := r.conn.ReadLine(delim)
	if reply != Ack {
		return fmt.Errorf("Router - error executing command: [%s]", cmd)
	}
	return nil
}

// Move positions the head at the given device-unit coordinates.
func (r *Router) Move(x, y, z int) error {
	return r.Execute(MoveCommand(x, y, z))
}

// MoveCommand composes the G1 motion command for the given coordinates.
func MoveCommand(x, y, z int) string {
	return fmt.Sprintf("G1X%dY%dZ%d\r\n", x, y, z)
}

// Home performs the startup handshake: drain whatever the boot spewed, wait
// for the banner, discard it, then home all axes and consume the
// acknowledgement.
func (r *Router) Home() {
	r.conn.Drain()
	time.Sleep(r.BootDelay)
	banner := r.conn.ReadLine(delim)
	r.logger.Info("router banner", zap.String("banner", banner))
	r.conn.Write("G28\r\n")
	ack := r.conn.ReadLine(delim)
	r.logger.Info("router homed", zap.String("reply", ack))
}

// Drain discards any queued bytes on the router port.
func (r *Router) Drain() {
	r.conn.Drain()
}
