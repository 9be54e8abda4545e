package link

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/timeutil"
)

// SerialLink reads newline-delimited JSON sample messages from a serial
// port, for bench rigs where a sensor is wired instead of wireless. The
// message schema is the same as on the WebSocket path.
type SerialLink struct {
	port    string
	baud    int
	deliver func(sensor.Sample)
	clock   timeutil.Clock

	malformed monitoring.Counter
}

// NewSerialLink prepares a serial ingest link. Run opens the port.
func NewSerialLink(port string, baud int, deliver func(sensor.Sample), clock timeutil.Clock) *SerialLink {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SerialLink{
		port:    port,
		baud:    baud,
		deliver: deliver,
		clock:   clock,
	}
}

// Run opens the port and delivers samples until a read error.
func (l *SerialLink) Run() error {
	serialOpts := serial.OpenOptions{
		PortName:              l.port,
		BaudRate:              uint(l.baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", l.port, err)
	}
	defer port.Close()
	monitoring.Logf("link: serial sensor on %s at %d baud", l.port, l.baud)

	return l.scan(port)
}

// scan decodes one JSON sample message per line. Unparseable lines are
// dropped and counted; only a transport error ends the loop.
func (l *SerialLink) scan(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var msg sensor.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			l.malformed.Inc()
			monitoring.Logf("link: serial: malformed line dropped: %v", err)
			continue
		}
		smp, err := msg.Sample(l.clock.Now())
		if err != nil {
			l.malformed.Inc()
			monitoring.Logf("link: serial: invalid sample dropped: %v", err)
			continue
		}

		l.deliver(smp)
	}
}

// Malformed returns how many serial lines were dropped.
func (l *SerialLink) Malformed() uint64 { return l.malformed.Value() }
