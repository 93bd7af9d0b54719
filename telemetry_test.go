package main

import (
	"io"
	"log"
	"math"
	"testing"

	"vtu-service/vtu"
)

func newTestTelemetry() *Telemetry {
	return &Telemetry{
		log: NewLeveledLogger(log.New(io.Discard, "", 0), LogLevelNone),
	}
}

func TestTelemetry_DecodesBroadcastFrames(t *testing.T) {
	tr := newTestTelemetry()

	state := &vtu.VehicleState{
		RPM:          3000.0,
		CoolantTemp:  88.0,
		Throttle:     40.0,
		MAF:          25.0,
		EngineLoad:   42.0,
		IntakeTemp:   27.0,
		Gear:         4,
		FluidTemp:    75.0,
		VehicleSpeed: 95.0,
		FuelLevel:    60.0,
		Odometer:     45231,
	}

	tr.HandleFrame(vtu.EncodeEngine1(state))
	tr.HandleFrame(vtu.EncodeEngine2(state))
	tr.HandleFrame(vtu.EncodeTrans(state))
	tr.HandleFrame(vtu.EncodeBCM(state))

	if !tr.dirty {
		t.Error("snapshot should be marked dirty after frames")
	}

	snap := tr.snap
	if snap.RPM != 3000.0 {
		t.Errorf("rpm: expected 3000, got %f", snap.RPM)
	}
	if snap.CoolantTemp != 88.0 {
		t.Errorf("coolant: expected 88, got %f", snap.CoolantTemp)
	}
	if math.Abs(snap.Throttle-40.0) > 100.0/255.0 {
		t.Errorf("throttle: expected ~40, got %f", snap.Throttle)
	}
	if snap.IntakeTemp != 27.0 {
		t.Errorf("intake: expected 27, got %f", snap.IntakeTemp)
	}
	if snap.Gear != 4 {
		t.Errorf("gear: expected 4, got %d", snap.Gear)
	}
	if snap.VehicleSpeed != 95.0 {
		t.Errorf("speed: expected 95, got %f", snap.VehicleSpeed)
	}
	if math.Abs(snap.FuelLevel-60.0) > 100.0/255.0 {
		t.Errorf("fuel: expected ~60, got %f", snap.FuelLevel)
	}
	if snap.Odometer != 45231 {
		t.Errorf("odometer: expected 45231, got %d", snap.Odometer)
	}
}

func TestTelemetry_IgnoresNonBroadcastFrames(t *testing.T) {
	tr := newTestTelemetry()

	frame := vtu.EncodeEngine1(&vtu.VehicleState{RPM: 1000})
	frame.ID = vtu.OBDEngineRespID
	tr.HandleFrame(frame)

	if tr.dirty {
		t.Error("non-broadcast frames must not touch the snapshot")
	}
}

func TestTelemetry_IgnoresShortFrames(t *testing.T) {
	tr := newTestTelemetry()

	frame := vtu.EncodeEngine1(&vtu.VehicleState{RPM: 1000})
	frame.Length = 2
	tr.HandleFrame(frame)

	if tr.dirty {
		t.Error("undecodable frames must not touch the snapshot")
	}
}
