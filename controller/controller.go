// Package controller orchestrates the liquid handler. It owns the host
// port, the router and the pump, executes each host message as an ordered
// batch of commands, and tracks the carry-over fluid left in the dispensing
// slot between applications.
package controller

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jt05610/liquidhandler/command"
	"github.com/jt05610/liquidhandler/comm/serial"
	"github.com/jt05610/liquidhandler/config"
	"github.com/jt05610/liquidhandler/message"
	"github.com/jt05610/liquidhandler/pump"
	"github.com/jt05610/liquidhandler/router"
)

const (
	// commandChannel is the only host channel the controller acts on.
	commandChannel = 4

	// unitsPerMicroliter converts a volume to plunger travel.
	unitsPerMicroliter = 24
	// maxPlungerUnits is the plunger's full stroke.
	maxPlungerUnits = 12000

	// externalSlotMin is the first slot ID mapped to an external source
	// channel instead of a tube holder position.
	externalSlotMin = 34
)

// Cleaning station position.
const (
	cleanX = 227
	cleanY = 152
	cleanZ = -20
)

// externalChannels maps external-source slot IDs to pump input channels.
var externalChannels = map[int]int{
	34: 4,
	35: 7,
	36: 6,
}

// Controller is the process-wide orchestrator state. It exclusively owns
// all three device handles; execution is single-threaded by design, so no
// locking is needed or permitted.
type Controller struct {
	logger *zap.Logger
	cfg    *config.Config
	app    serial.Conn
	router *router.Router
	pump   *pump.Pump

	// slotOccupancy is the carry-over fluid in the dispensing slot, in
	// microliters. Reset to 0 by the evacuation program.
	slotOccupancy int
}

func New(cfg *config.Config, app serial.Conn, r *router.Router, p *pump.Pump, logger *zap.Logger) *Controller {
	return &Controller{
		logger: logger,
		cfg:    cfg,
		app:    app,
		router: r,
		pump:   p,
	}
}

// SlotOccupancy reports the carry-over currently believed to be in the slot.
func (c *Controller) SlotOccupancy() int {
	return c.slotOccupancy
}

// Run is the receive loop. It blocks forever, consuming one newline
// terminated frame at a time from the host port. The next frame is not read
// until the current batch has fully terminated.
func (c *Controller) Run() {
	for {
		c.HandleLine(c.app.ReadLine("\n"))
	}
}

// HandleLine parses one frame and executes it. Malformed frames are logged
// and dropped; frames for other channels are dropped silently.
func (c *Controller) HandleLine(line string) {
	msg, err := message.Parse(line)
	if err != nil {
		c.logger.Error("Invalid message",
			zap.String("line", line),
			zap.Error(err),
		)
		return
	}
	c.handleMessage(msg)
}

func (c *Controller) handleMessage(msg *message.Message) {
	c.logger.Debug("parsed message",
		zap.Int8("channel", msg.Channel),
		zap.String("data", msg.Data),
	)
	if msg.Channel != commandChannel {
		return
	}
	for _, cmd := range command.Tokenize(msg.Data) {
		c.pump.AwaitAvailability()
		if err := c.execute(cmd); err != nil {
			c.logger.Error("command failed",
				zap.String("command", cmd.Raw),
				zap.Error(err),
			)
			return
		}
	}
	c.logger.Info("Executed command successfully", zap.String("data", msg.Data))
}

func (c *Controller) execute(cmd command.Command) error {
	switch cmd.Kind {
	case command.LiquidApplication:
		return c.liquidApplication(cmd)
	case command.Wait:
		return c.wait(cmd)
	case command.TempChange, command.BottomTempChange:
		c.logger.Warn("Unimplemented command", zap.String("command", cmd.Raw))
		return nil
	default:
		return fmt.Errorf("Unknown Command %s", cmd.Raw)
	}
}

// liquidApplication runs one LA token: evacuate any carry-over, aspirate
// from the source, dispense into the slot, and optionally clean.
func (c *Controller) liquidApplication(cmd command.Command) error {
	c.logger.Debug("executing liquid application", zap.String("command", cmd.Raw))
	vol, err := cmd.Volume()
	if err != nil {
		return err
	}
	units := vol * unitsPerMicroliter
	if units > maxPlungerUnits {
		c.logger.Warn("volume exceeds plunger stroke",
			zap.Int("volume", vol),
			zap.Int("units", units),
		)
	}
	slot, err := cmd.SlotID()
	if err != nil {
		return err
	}

	c.router.Drain()
	c.pump.Drain()

	if c.slotOccupancy > 0 {
		c.pump.Execute(pump.Evacuate)
		c.slotOccupancy = 0
	}

	if slot >= externalSlotMin {
		ch, ok := externalChannels[slot]
		if !ok {
			return fmt.Errorf("unknown external source slot %d", slot)
		}
		c.pump.Execute(pump.AspirateExternal(ch, units))
		c.pump.Execute(pump.WaterRinse)
		return nil
	}

	x, y, z, err := c.cfg.SlotCoordinates(slot)
	if err != nil {
		return err
	}
	if err := c.router.Move(x, y, z); err != nil {
		return err
	}
	c.pump.Execute(pump.Aspirate(units))
	if err := c.router.Move(x, y, 0); err != nil {
		return err
	}
	c.pump.Execute(pump.Dispense)
	c.slotOccupancy = vol

	if c.cfg.ConstantCleaning {
		if err := c.router.Move(cleanX, cleanY, cleanZ); err != nil {
			return err
		}
		c.pump.Execute(pump.WaterRinse)
		c.pump.Execute(pump.AirPurge)
	}
	return nil
}

func (c *Controller) wait(cmd command.Command) error {
	d, err := cmd.WaitDuration()
	if err != nil {
		return err
	}
	c.logger.Info("waiting", zap.Duration("duration", d))
	time.Sleep(d)
	return nil
}
