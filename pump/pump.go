// Package pump drives the syringe pump bus. Two pumps share the bus and are
// addressed as /1 and /2. Commands complete asynchronously in the device, so
// completion is observed by polling the status query until the pump reports
// idle. A command line encodes a miniature program: I<n> selects the input
// channel, A<n> moves the plunger to an absolute position, O<n> selects the
// output channel, and g...G<k>R repeats the bracketed section k times. The
// orchestrator composes these strings verbatim; this adapter never parses
// them.
package pump

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jt05610/liquidhandler/comm/serial"
)

const delim = "\r\n"

const (
	// StatusQuery asks pump 1 whether it is still executing.
	StatusQuery = "/1Q29\r\n"
	// ReadyReply is the idle status, compared after stripping one framing
	// byte from each end of the reply.
	ReadyReply = "/0c"
)

// Fixed programs issued by the orchestrator.
const (
	// InitPump1 and InitPump2 run once at startup.
	InitPump1 = "/1ZgI4A12000O3A0G3R\r\n"
	InitPump2 = "/2ZR\r\n"
	// Evacuate empties the slot of carried-over fluid via pump 2.
	Evacuate = "/2gI1A12000O2A0G4R\r\n"
	// Dispense pushes the aspirated volume into the slot.
	Dispense = "/1gI1A12000O2A0G12R\r\n"
	// WaterRinse and AirPurge make up the cleaning sequence together with
	// the router move to the cleaning station.
	WaterRinse = "/1gI4A12000O1A0G2R\r\n"
	AirPurge   = "/1gI5A12000O1A0G4R\r\n"
)

// Aspirate composes the pump-1 program that draws units of plunger travel
// from the slot input channel.
func Aspirate(units int) string {
	return fmt.Sprintf("/1I1A%dO2A0R\r\n", units)
}

// AspirateExternal composes the pump-1 program that draws from one of the
// fixed external source channels.
func AspirateExternal(channel, units int) string {
	return fmt.Sprintf("/1I%dA%dO1A0R\r\n", channel, units)
}

type Pump struct {
	conn   serial.Conn
	logger *zap.Logger
	// Settle is how long Execute waits after a write for the pump to start
	// before polling for completion.
	Settle time.Duration
	// PollInterval separates availability polls.
	PollInterval time.Duration
}

func New(conn serial.Conn, logger *zap.Logger) *Pump {
	return &Pump{
		conn:         conn,
		logger:       logger,
		Settle:       time.Second,
		PollInterval: time.Second,
	}
}

// AwaitAvailability polls the status query until the pump reports idle.
// TODO: a stuck pump hangs here forever; the protocol has no negative
// acknowledgement to key a timeout on.
func (p *Pump) AwaitAvailability() {
	for {
		p.conn.Write(StatusQuery)
		reply := p.conn.ReadLineSilent(delim)
		if len(reply) >= 2 && reply[1:len(reply)-1] == ReadyReply {
			return
		}
		time.Sleep(p.PollInterval)
	}
}

// Execute drains stale reply bytes, writes the program, gives the pump time
// to begin, then blocks until it reports idle again.
func (p *Pump) Execute(cmd string) {
	p.conn.Drain()
	p.conn.Write(cmd)
	time.Sleep(p.Settle)
	p.AwaitAvailability()
}

// Init runs the two startup programs that home both plungers.
func (p *Pump) Init() {
	p.logger.Info("initializing pumps")
	p.Execute(InitPump1)
	p.Execute(InitPump2)
}

// Drain discards any queued bytes on the pump port.
func (p *Pump) Drain() {
	p.conn.Drain()
}
