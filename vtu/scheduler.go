package vtu

import (
	"time"

	"github.com/brutella/can"
)

// FrameSender sends a frame onto the bus. *can.Bus satisfies it.
type FrameSender interface {
	Publish(frame can.Frame) error
}

// BroadcastPeriods holds the cycle time of each periodic message.
type BroadcastPeriods struct {
	Engine1 time.Duration
	Engine2 time.Duration
	Trans   time.Duration
	BCM     time.Duration
}

// DefaultBroadcastPeriods returns the standard broadcast rates.
func DefaultBroadcastPeriods() BroadcastPeriods {
	return BroadcastPeriods{
		Engine1: 10 * time.Millisecond,
		Engine2: 100 * time.Millisecond,
		Trans:   50 * time.Millisecond,
		BCM:     100 * time.Millisecond,
	}
}

type broadcastEntry struct {
	id     uint32
	period time.Duration
	encode func(*VehicleState) can.Frame
}

// Broadcaster fires the periodic broadcast messages. Each message keeps its
// own last-fire timestamp; a message fires whenever a poll observes that at
// least one period has elapsed, and the timestamp is then reset to the poll
// time. Periods missed under load are absorbed, never replayed as catch-up
// bursts.
type Broadcaster struct {
	log      Logger
	sender   FrameSender
	state    *VehicleState
	schedule []broadcastEntry
	lastFire map[uint32]time.Time
}

func NewBroadcaster(logger Logger, sender FrameSender, state *VehicleState, periods BroadcastPeriods) *Broadcaster {
	return &Broadcaster{
		log:    logger,
		sender: sender,
		state:  state,
		schedule: []broadcastEntry{
			{EngineData1ID, periods.Engine1, EncodeEngine1},
			{EngineData2ID, periods.Engine2, EncodeEngine2},
			{TransDataID, periods.Trans, EncodeTrans},
			{BCMDataID, periods.BCM, EncodeBCM},
		},
		lastFire: make(map[uint32]time.Time),
	}
}

// Poll runs one scheduling pass against the given clock reading. Messages
// that never fired before fire immediately.
func (b *Broadcaster) Poll(now time.Time) {
	for _, entry := range b.schedule {
		last, fired := b.lastFire[entry.id]
		if fired && now.Sub(last) < entry.period {
			continue
		}

		frame := entry.encode(b.state)
		if err := b.sender.Publish(frame); err != nil {
			b.log.Error("Failed to broadcast 0x%03X: %v", entry.id, err)
		}
		b.lastFire[entry.id] = now
	}
}
