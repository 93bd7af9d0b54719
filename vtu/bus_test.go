package vtu

import (
	"errors"
	"testing"
	"time"
)

func newTestBus() *Bus {
	return &Bus{
		log: &testLogger{},
		rx:  make(chan RxFrame, 4),
	}
}

func TestBus_NoFiltersAcceptsAll(t *testing.T) {
	b := newTestBus()

	b.Handle(makeFrame(EngineData1ID, []byte{0x01}))
	b.Handle(makeFrame(OBDBroadcastID, []byte{0x02, 0x01}))

	for i := 0; i < 2; i++ {
		if _, err := b.Receive(0); err != nil {
			t.Fatalf("frame %d: expected queued frame, got %v", i, err)
		}
	}
}

func TestBus_FilterMatching(t *testing.T) {
	b := newTestBus()
	b.SetFilters([]Filter{
		{ID: OBDBroadcastID, Mask: StandardIDMask},
		{ID: OBDEngineReqID, Mask: StandardIDMask},
	})

	b.Handle(makeFrame(EngineData1ID, []byte{0x01}))   // filtered out
	b.Handle(makeFrame(TransDataID, []byte{0x01}))     // filtered out
	b.Handle(makeFrame(OBDBroadcastID, []byte{0x02, 0x01, 0x0C}))
	b.Handle(makeFrame(OBDEngineReqID, []byte{0x02, 0x01, 0x0D}))

	first, err := b.Receive(0)
	if err != nil {
		t.Fatalf("expected first diagnostic frame: %v", err)
	}
	if first.Frame.ID != OBDBroadcastID {
		t.Errorf("expected 0x7DF first, got 0x%03X", first.Frame.ID)
	}

	second, err := b.Receive(0)
	if err != nil {
		t.Fatalf("expected second diagnostic frame: %v", err)
	}
	if second.Frame.ID != OBDEngineReqID {
		t.Errorf("expected 0x7E0 second, got 0x%03X", second.Frame.ID)
	}

	if _, err := b.Receive(0); !errors.Is(err, ErrReceiveTimeout) {
		t.Errorf("filtered frames must not be queued, got %v", err)
	}
}

func TestBus_MaskedFilter(t *testing.T) {
	b := newTestBus()
	// Match the whole 0x7xx block.
	b.SetFilters([]Filter{{ID: 0x700, Mask: 0x700}})

	b.Handle(makeFrame(OBDBroadcastID, []byte{0x02, 0x01}))
	b.Handle(makeFrame(EngineData1ID, []byte{0x01}))

	rx, err := b.Receive(0)
	if err != nil {
		t.Fatalf("expected 0x7DF to match mask 0x700: %v", err)
	}
	if rx.Frame.ID != OBDBroadcastID {
		t.Errorf("expected 0x7DF, got 0x%03X", rx.Frame.ID)
	}
	if _, err := b.Receive(0); !errors.Is(err, ErrReceiveTimeout) {
		t.Errorf("0x100 must not match mask 0x700, got %v", err)
	}
}

func TestBus_ExtendedIDMaskedToStandard(t *testing.T) {
	b := newTestBus()
	b.SetFilters([]Filter{{ID: OBDBroadcastID, Mask: StandardIDMask}})

	// Upper bits beyond 11 are masked off on receive.
	b.Handle(makeFrame(0x800007DF, []byte{0x02, 0x01}))

	rx, err := b.Receive(0)
	if err != nil {
		t.Fatalf("expected masked frame to match: %v", err)
	}
	if rx.Frame.ID != OBDBroadcastID {
		t.Errorf("expected ID masked to 0x7DF, got 0x%03X", rx.Frame.ID)
	}
}

func TestBus_ReceiveTimeout(t *testing.T) {
	b := newTestBus()

	start := time.Now()
	_, err := b.Receive(10 * time.Millisecond)
	if !errors.Is(err, ErrReceiveTimeout) {
		t.Fatalf("expected ErrReceiveTimeout, got %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Receive returned before the timeout elapsed")
	}
}

func TestBus_QueueOverflowDrops(t *testing.T) {
	b := newTestBus()

	// Queue capacity is 4 in tests; extra frames are dropped, never block.
	for i := 0; i < 10; i++ {
		b.Handle(makeFrame(OBDBroadcastID, []byte{0x02, 0x01, byte(i)}))
	}

	received := 0
	for {
		if _, err := b.Receive(0); err != nil {
			break
		}
		received++
	}
	if received != 4 {
		t.Errorf("expected 4 queued frames after overflow, got %d", received)
	}
}

func TestBus_TimestampSet(t *testing.T) {
	b := newTestBus()

	before := time.Now()
	b.Handle(makeFrame(OBDBroadcastID, []byte{0x02, 0x01}))

	rx, err := b.Receive(0)
	if err != nil {
		t.Fatalf("expected frame: %v", err)
	}
	if rx.Timestamp.Before(before) {
		t.Error("receive timestamp not set")
	}
}
