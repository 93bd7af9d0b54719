package vtu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/brutella/can"
)

// Signal scaling factors, big-endian byte order throughout.
const (
	RPMFactor     = 0.25 // rpm per bit
	MAFFactor     = 0.01 // g/s per bit
	TempOffset    = 40   // degC offset for all temperature bytes
	PercentFactor = 255.0 / 100.0
)

// satU8 converts a physical value to an unsigned byte, saturating at the
// encoding boundary instead of wrapping.
func satU8(v float64) byte {
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return byte(r)
}

// satU16 converts a physical value to an unsigned 16-bit word, saturating at
// the encoding boundary instead of wrapping.
func satU16(v float64) uint16 {
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r >= 65535 {
		return 65535
	}
	return uint16(r)
}

func packFrame(id uint32, data []byte) can.Frame {
	var frameData [8]byte
	copy(frameData[:], data)
	return can.Frame{
		ID:     id,
		Length: uint8(len(data)),
		Data:   frameData,
	}
}

// EncodeEngine1 packs ENGINE_DATA_1 (0x100):
// bytes 0-1 RPM (0.25 rpm/bit), byte 2 coolant (+40), byte 3 throttle
// (0-255 = 0-100%), bytes 4-5 MAF (0.01 g/s per bit), byte 6 load.
func EncodeEngine1(s *VehicleState) can.Frame {
	data := make([]byte, 8)
	binary.BigEndian.PutUint16(data[0:2], satU16(s.RPM/RPMFactor))
	data[2] = satU8(s.CoolantTemp + TempOffset)
	data[3] = satU8(s.Throttle * PercentFactor)
	binary.BigEndian.PutUint16(data[4:6], satU16(s.MAF/MAFFactor))
	data[6] = satU8(s.EngineLoad * PercentFactor)
	return packFrame(EngineData1ID, data)
}

// Engine1Signals is the decoded view of ENGINE_DATA_1.
type Engine1Signals struct {
	RPM         float64
	CoolantTemp float64
	Throttle    float64
	MAF         float64
	EngineLoad  float64
}

func DecodeEngine1(frame can.Frame) (Engine1Signals, error) {
	if frame.Length < 7 {
		return Engine1Signals{}, fmt.Errorf("ENGINE_DATA_1: short payload (%d bytes)", frame.Length)
	}
	return Engine1Signals{
		RPM:         float64(binary.BigEndian.Uint16(frame.Data[0:2])) * RPMFactor,
		CoolantTemp: float64(frame.Data[2]) - TempOffset,
		Throttle:    float64(frame.Data[3]) / PercentFactor,
		MAF:         float64(binary.BigEndian.Uint16(frame.Data[4:6])) * MAFFactor,
		EngineLoad:  float64(frame.Data[6]) / PercentFactor,
	}, nil
}

// EncodeEngine2 packs ENGINE_DATA_2 (0x101): byte 0 intake temp (+40),
// byte 1 engine load (duplicated for compatibility).
func EncodeEngine2(s *VehicleState) can.Frame {
	data := make([]byte, 8)
	data[0] = satU8(s.IntakeTemp + TempOffset)
	data[1] = satU8(s.EngineLoad * PercentFactor)
	return packFrame(EngineData2ID, data)
}

// Engine2Signals is the decoded view of ENGINE_DATA_2.
type Engine2Signals struct {
	IntakeTemp float64
	EngineLoad float64
}

func DecodeEngine2(frame can.Frame) (Engine2Signals, error) {
	if frame.Length < 2 {
		return Engine2Signals{}, fmt.Errorf("ENGINE_DATA_2: short payload (%d bytes)", frame.Length)
	}
	return Engine2Signals{
		IntakeTemp: float64(frame.Data[0]) - TempOffset,
		EngineLoad: float64(frame.Data[1]) / PercentFactor,
	}, nil
}

// EncodeTrans packs TRANS_DATA (0x200): byte 0 gear, byte 1 fluid temp
// (+40), bytes 2-3 vehicle speed (km/h).
func EncodeTrans(s *VehicleState) can.Frame {
	data := make([]byte, 8)
	data[0] = byte(s.Gear)
	data[1] = satU8(s.FluidTemp + TempOffset)
	binary.BigEndian.PutUint16(data[2:4], satU16(s.VehicleSpeed))
	return packFrame(TransDataID, data)
}

// TransSignals is the decoded view of TRANS_DATA.
type TransSignals struct {
	Gear         int
	FluidTemp    float64
	VehicleSpeed float64
}

func DecodeTrans(frame can.Frame) (TransSignals, error) {
	if frame.Length < 4 {
		return TransSignals{}, fmt.Errorf("TRANS_DATA: short payload (%d bytes)", frame.Length)
	}
	return TransSignals{
		Gear:         int(frame.Data[0]),
		FluidTemp:    float64(frame.Data[1]) - TempOffset,
		VehicleSpeed: float64(binary.BigEndian.Uint16(frame.Data[2:4])),
	}, nil
}

// EncodeBCM packs BCM_DATA (0x300): byte 0 fuel level (0-255 = 0-100%),
// bytes 1-4 odometer (km).
func EncodeBCM(s *VehicleState) can.Frame {
	data := make([]byte, 8)
	data[0] = satU8(s.FuelLevel * PercentFactor)
	binary.BigEndian.PutUint32(data[1:5], s.Odometer)
	return packFrame(BCMDataID, data)
}

// BCMSignals is the decoded view of BCM_DATA.
type BCMSignals struct {
	FuelLevel float64
	Odometer  uint32
}

func DecodeBCM(frame can.Frame) (BCMSignals, error) {
	if frame.Length < 5 {
		return BCMSignals{}, fmt.Errorf("BCM_DATA: short payload (%d bytes)", frame.Length)
	}
	return BCMSignals{
		FuelLevel: float64(frame.Data[0]) / PercentFactor,
		Odometer:  binary.BigEndian.Uint32(frame.Data[1:5]),
	}, nil
}
