package serial

import (
	"strings"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Conn is the transport capability a device adapter drives. Production code
// binds it to a *Port; tests bind it to a scripted in-memory transcript.
type Conn interface {
	// Write sends msg on the port. Writes are best-effort: a failure is
	// logged and otherwise swallowed, because the device's missing reply
	// surfaces the problem on the next read anyway.
	Write(msg string)
	// ReadLine blocks until delim is seen as a suffix of the accumulated
	// buffer and returns the buffer with delim stripped.
	ReadLine(delim string) string
	// ReadLineSilent is ReadLine without traffic logging. Polling loops use
	// it to keep the log readable.
	ReadLineSilent(delim string) string
	// Drain consumes every byte currently queued without interpretation.
	Drain()
}

// pollInterval is how long readLine sleeps when no byte is available.
const pollInterval = 10 * time.Microsecond

type Port struct {
	name   string
	port   serial.Port
	logger *zap.Logger
}

var _ Conn = (*Port)(nil)

func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

// Open opens path at the given baud rate, 8 data bits, no parity, one stop
// bit. The read timeout is kept short so ReadLine and Drain can poll.
func Open(path string, baud int, logger *zap.Logger) (*Port, error) {
	p, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(time.Millisecond); err != nil {
		return nil, err
	}
	return &Port{name: path, port: p, logger: logger}, nil
}

func (p *Port) Close() error {
	return p.port.Close()
}

func (p *Port) Write(msg string) {
	p.logger.Debug("write",
		zap.String("port", p.name),
		zap.String("data", Escape(msg)),
	)
	if _, err := p.port.Write([]byte(msg)); err != nil {
		p.logger.Error("write failed",
			zap.String("port", p.name),
			zap.Error(err),
		)
	}
}

// WriteSilent is Write without traffic logging.
func (p *Port) WriteSilent(msg string) {
	if _, err := p.port.Write([]byte(msg)); err != nil {
		p.logger.Error("write failed",
			zap.String("port", p.name),
			zap.Error(err),
		)
	}
}

func (p *Port) ReadLine(delim string) string {
	line := p.readLine(delim)
	p.logger.Debug("read",
		zap.String("port", p.name),
		zap.String("data", Escape(line)),
	)
	return line
}

func (p *Port) ReadLineSilent(delim string) string {
	return p.readLine(delim)
}

func (p *Port) readLine(delim string) string {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := p.port.Read(buf)
		if err != nil {
			p.logger.Error("read failed",
				zap.String("port", p.name),
				zap.Error(err),
			)
			time.Sleep(pollInterval)
			continue
		}
		if n == 0 {
			time.Sleep(pollInterval)
			continue
		}
		line = append(line, buf[0])
		if strings.HasSuffix(string(line), delim) {
			return strings.TrimSuffix(string(line), delim)
		}
	}
}

func (p *Port) Drain() {
	buf := make([]byte, 1)
	for {
		n, err := p.port.Read(buf)
		if err != nil || n == 0 {
			return
		}
	}
}

var escaper = strings.NewReplacer("\r", "\\r", "\n", "\\n")

// Escape renders control characters visibly for log lines.
func Escape(s string) string {
	return escaper.Replace(s)
}
