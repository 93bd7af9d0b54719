package vtu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brutella/can"
)

// ErrReceiveTimeout is returned by Receive when no frame arrived within the
// given timeout.
var ErrReceiveTimeout = errors.New("CAN receive timed out")

const rxQueueSize = 64

// Filter matches identifiers where (id & Mask) == (ID & Mask).
type Filter struct {
	ID   uint32
	Mask uint32
}

// RxFrame is a received frame with its arrival timestamp.
type RxFrame struct {
	Frame     can.Frame
	Timestamp time.Time
}

// Bus wraps a SocketCAN bus with identifier filtering and bounded-timeout
// receive. Received frames are queued; when the queue is full further frames
// are dropped rather than blocking the bus reader.
type Bus struct {
	log Logger
	bus *can.Bus
	rx  chan RxFrame

	mu      sync.RWMutex
	filters []Filter
}

// OpenBus binds a frame channel to the named CAN interface. Failures
// (missing interface, bind/permission errors) are fatal startup conditions
// and are not retried here.
func OpenBus(logger Logger, device string) (*Bus, error) {
	inner, err := can.NewBusForInterfaceWithName(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open CAN interface %s: %w", device, err)
	}

	b := &Bus{
		log: logger,
		bus: inner,
		rx:  make(chan RxFrame, rxQueueSize),
	}
	inner.Subscribe(b)

	go func() {
		if err := inner.ConnectAndPublish(); err != nil {
			logger.Error("CAN bus receive loop ended: %v", err)
		}
	}()

	return b, nil
}

// SetFilters restricts which identifiers Receive will surface. An empty set
// accepts everything. Filtering is inert: non-matching frames are discarded
// before queueing.
func (b *Bus) SetFilters(filters []Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters = filters
}

func (b *Bus) accepts(id uint32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.filters) == 0 {
		return true
	}
	for _, f := range b.filters {
		if id&f.Mask == f.ID&f.Mask {
			return true
		}
	}
	return false
}

// Handle implements can.Handler. It runs on the bus reader goroutine.
func (b *Bus) Handle(frame can.Frame) {
	frame.ID &= StandardIDMask
	if !b.accepts(frame.ID) {
		return
	}

	LogCANFrame(b.log, "RX", frame.ID, frame.Data, frame.Length)

	select {
	case b.rx <- RxFrame{Frame: frame, Timestamp: time.Now()}:
	default:
		b.log.Warn("RX queue full, dropping frame 0x%03X", frame.ID)
	}
}

// Send publishes a frame on the bus.
func (b *Bus) Send(frame can.Frame) error {
	LogCANFrame(b.log, "TX", frame.ID, frame.Data, frame.Length)
	return b.bus.Publish(frame)
}

// Publish implements FrameSender.
func (b *Bus) Publish(frame can.Frame) error {
	return b.Send(frame)
}

// Receive returns the next queued frame. A non-positive timeout polls
// without blocking. ErrReceiveTimeout is returned when nothing arrived.
func (b *Bus) Receive(timeout time.Duration) (RxFrame, error) {
	if timeout <= 0 {
		select {
		case rx := <-b.rx:
			return rx, nil
		default:
			return RxFrame{}, ErrReceiveTimeout
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rx := <-b.rx:
		return rx, nil
	case <-timer.C:
		return RxFrame{}, ErrReceiveTimeout
	}
}

// Close disconnects from the CAN interface.
func (b *Bus) Close() error {
	return b.bus.Disconnect()
}
