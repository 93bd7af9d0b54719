package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brutella/can"
	"github.com/go-redis/redis/v8"

	"vtu-service/vtu"
)

const (
	telemetryHashKey = "vehicle:telemetry"
	telemetryChannel = "vehicle:telemetry"
)

// telemetrySnapshot is the last decoded value of every broadcast signal.
type telemetrySnapshot struct {
	RPM          float64
	CoolantTemp  float64
	Throttle     float64
	MAF          float64
	EngineLoad   float64
	IntakeTemp   float64
	Gear         int
	FluidTemp    float64
	VehicleSpeed float64
	FuelLevel    float64
	Odometer     uint32
}

// Telemetry is a thin pass-through reader of the broadcast frames: it
// decodes them with the shared codec and publishes the resulting snapshot
// to Redis once per interval. It holds no protocol logic and never touches
// the simulator's state.
type Telemetry struct {
	log      *LeveledLogger
	redis    *redis.Client
	interval time.Duration

	mu    sync.Mutex
	snap  telemetrySnapshot
	dirty bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewTelemetry(logger *LeveledLogger, redisClient *redis.Client, interval time.Duration) *Telemetry {
	ctx, cancel := context.WithCancel(context.Background())

	t := &Telemetry{
		log:      logger,
		redis:    redisClient,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}

	go t.publishLoop()

	return t
}

func (t *Telemetry) Destroy() {
	if t.cancel != nil {
		t.cancel()
	}
}

// HandleFrame updates the snapshot from one broadcast frame. Frames that
// are not broadcast messages, or that fail to decode, are ignored.
func (t *Telemetry) HandleFrame(frame can.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch frame.ID {
	case vtu.EngineData1ID:
		sig, err := vtu.DecodeEngine1(frame)
		if err != nil {
			t.log.Debug("Telemetry decode: %v", err)
			return
		}
		t.snap.RPM = sig.RPM
		t.snap.CoolantTemp = sig.CoolantTemp
		t.snap.Throttle = sig.Throttle
		t.snap.MAF = sig.MAF
		t.snap.EngineLoad = sig.EngineLoad

	case vtu.EngineData2ID:
		sig, err := vtu.DecodeEngine2(frame)
		if err != nil {
			t.log.Debug("Telemetry decode: %v", err)
			return
		}
		t.snap.IntakeTemp = sig.IntakeTemp

	case vtu.TransDataID:
		sig, err := vtu.DecodeTrans(frame)
		if err != nil {
			t.log.Debug("Telemetry decode: %v", err)
			return
		}
		t.snap.Gear = sig.Gear
		t.snap.FluidTemp = sig.FluidTemp
		t.snap.VehicleSpeed = sig.VehicleSpeed

	case vtu.BCMDataID:
		sig, err := vtu.DecodeBCM(frame)
		if err != nil {
			t.log.Debug("Telemetry decode: %v", err)
			return
		}
		t.snap.FuelLevel = sig.FuelLevel
		t.snap.Odometer = sig.Odometer

	default:
		return
	}

	t.dirty = true
}

func (t *Telemetry) publishLoop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.dirty {
				t.mu.Unlock()
				continue
			}
			snap := t.snap
			t.dirty = false
			t.mu.Unlock()

			if err := t.publish(snap); err != nil {
				t.log.Error("Failed to publish telemetry: %v", err)
			}
		}
	}
}

func (t *Telemetry) publish(snap telemetrySnapshot) error {
	pipe := t.redis.Pipeline()

	pipe.HSet(t.ctx, telemetryHashKey, map[string]interface{}{
		"rpm":          fmt.Sprintf("%.1f", snap.RPM),
		"coolant-temp": fmt.Sprintf("%.1f", snap.CoolantTemp),
		"throttle":     fmt.Sprintf("%.1f", snap.Throttle),
		"maf":          fmt.Sprintf("%.2f", snap.MAF),
		"engine-load":  fmt.Sprintf("%.1f", snap.EngineLoad),
		"intake-temp":  fmt.Sprintf("%.1f", snap.IntakeTemp),
		"gear":         snap.Gear,
		"fluid-temp":   fmt.Sprintf("%.1f", snap.FluidTemp),
		"speed":        fmt.Sprintf("%.1f", snap.VehicleSpeed),
		"fuel-level":   fmt.Sprintf("%.1f", snap.FuelLevel),
		"odometer":     snap.Odometer,
	})

	pipe.Publish(t.ctx, telemetryChannel, "update")

	if _, err := pipe.Exec(t.ctx); err != nil {
		return fmt.Errorf("failed to publish telemetry snapshot: %v", err)
	}

	return nil
}
