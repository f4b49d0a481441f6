package pump_test

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jt05610/liquidhandler/comm/serial/serialtest"
	"github.com/jt05610/liquidhandler/pump"
)

// idle is a framed ready reply; one byte is stripped from each end before
// the comparison with pump.ReadyReply.
const idle = "\x02/0c\x03"

func newPump(t *testing.T, conn *serialtest.Conn) *pump.Pump {
	t.Helper()
	p := pump.New(conn, zaptest.NewLogger(t))
	p.Settle = 0
	p.PollInterval = 0
	return p
}

func TestAwaitAvailabilityPollsUntilIdle(t *testing.T) {
	conn := &serialtest.Conn{DefaultReply: idle}
	conn.Script("\x02/0b\x03", "\x02/0b\x03")
	p := newPump(t, conn)
	p.AwaitAvailability()
	if len(conn.Writes) != 3 {
		t.Fatalf("expected 3 status queries, got %d: %q", len(conn.Writes), conn.Writes)
	}
	for _, w := range conn.Writes {
		if w != pump.StatusQuery {
			t.Fatalf("unexpected write %q", w)
		}
	}
}

func TestExecuteDrainsThenWrites(t *testing.T) {
	conn := &serialtest.Conn{DefaultReply: idle}
	p := newPump(t, conn)
	p.Execute(pump.Evacuate)
	if conn.Drains != 1 {
		t.Fatalf("expected 1 drain, got %d", conn.Drains)
	}
	if len(conn.Writes) < 2 || conn.Writes[0] != pump.Evacuate {
		t.Fatalf("expected program first, got %q", conn.Writes)
	}
	if conn.Writes[1] != pump.StatusQuery {
		t.Fatalf("expected status query after program, got %q", conn.Writes[1])
	}
}

func TestInitOrder(t *testing.T) {
	conn := &serialtest.Conn{DefaultReply: idle}
	p := newPump(t, conn)
	p.Init()
	var programs []string
	for _, w := range conn.Writes {
		if w != pump.StatusQuery {
			programs = append(programs, w)
		}
	}
	if len(programs) != 2 || programs[0] != pump.InitPump1 || programs[1] != pump.InitPump2 {
		t.Fatalf("unexpected init programs %q", programs)
	}
}

func TestProgramComposition(t *testing.T) {
	if got := pump.Aspirate(2400); got != "/1I1A2400O2A0R\r\n" {
		t.Fatalf("unexpected aspirate %q", got)
	}
	if got := pump.AspirateExternal(4, 2400); got != "/1I4A2400O1A0R\r\n" {
		t.Fatalf("unexpected external aspirate %q", got)
	}
}
