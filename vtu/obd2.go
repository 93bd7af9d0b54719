package vtu

import (
	"encoding/binary"

	"github.com/brutella/can"
)

// OBD-II service modes (SAE J1979).
const (
	ModeCurrentData = 0x01
	ModeReadDTC     = 0x03
	ModeClearDTC    = 0x04
	ModeVehicleInfo = 0x09

	responseOffset = 0x40
	negativeSID    = 0x7F

	// Negative response code: sub-function not supported.
	nrcSubFunctionNotSupported = 0x12
)

// Mode 01 PIDs.
const (
	PIDSupported0120 = 0x00
	PIDEngineLoad    = 0x04
	PIDCoolantTemp   = 0x05
	PIDEngineRPM     = 0x0C
	PIDVehicleSpeed  = 0x0D
	PIDIntakeTemp    = 0x0F
	PIDMAF           = 0x10
	PIDThrottlePos   = 0x11
	PIDSupported2140 = 0x20
	PIDFuelLevel     = 0x2F
)

// mode01Signals maps each supported telemetry PID to its response-data
// encoder. The encoders mirror the broadcast codec scaling so downstream
// decoders can share formulas. The supported-PID bitmaps are derived from
// this table rather than kept as literal constants.
var mode01Signals = map[byte]func(*VehicleState) []byte{
	PIDEngineLoad: func(s *VehicleState) []byte {
		return []byte{satU8(s.EngineLoad * PercentFactor)}
	},
	PIDCoolantTemp: func(s *VehicleState) []byte {
		return []byte{satU8(s.CoolantTemp + TempOffset)}
	},
	PIDEngineRPM: func(s *VehicleState) []byte {
		return beU16(satU16(s.RPM * 4.0))
	},
	PIDVehicleSpeed: func(s *VehicleState) []byte {
		return []byte{satU8(s.VehicleSpeed)}
	},
	PIDIntakeTemp: func(s *VehicleState) []byte {
		return []byte{satU8(s.IntakeTemp + TempOffset)}
	},
	PIDMAF: func(s *VehicleState) []byte {
		return beU16(satU16(s.MAF * 100.0))
	},
	PIDThrottlePos: func(s *VehicleState) []byte {
		return []byte{satU8(s.Throttle * PercentFactor)}
	},
	PIDFuelLevel: func(s *VehicleState) []byte {
		return []byte{satU8(s.FuelLevel * PercentFactor)}
	},
}

func beU16(v uint16) []byte {
	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, v)
	return data
}

// supportedBitmap computes the 4-byte supported-PID bitmap for the window
// (first, first+0x20]. Bit 7 of the first byte is PID first+1.
func supportedBitmap(first byte) [4]byte {
	var bm [4]byte
	mark := func(pid byte) {
		if pid <= first || pid > first+0x20 {
			return
		}
		off := pid - first - 1
		bm[off/8] |= 1 << (7 - off%8)
	}
	for pid := range mode01Signals {
		mark(pid)
	}
	mark(PIDSupported2140)
	return bm
}

// Handler answers OBD-II diagnostic requests against the live vehicle
// state. It is stateless per request: exactly one response frame per valid
// request, no queueing, no retry.
type Handler struct {
	log    Logger
	sender FrameSender
	state  *VehicleState
}

func NewHandler(logger Logger, sender FrameSender, state *VehicleState) *Handler {
	return &Handler{
		log:    logger,
		sender: sender,
		state:  state,
	}
}

// HandleFrame processes one incoming frame. Frames that are not diagnostic
// requests are ignored. Requests with fewer than 2 payload bytes are
// dropped without a response. Modes other than 01 are logged only; they
// never receive a reply (unknown PIDs under mode 01 do, see buildMode01).
func (h *Handler) HandleFrame(frame can.Frame) error {
	if frame.ID != OBDBroadcastID && frame.ID != OBDEngineReqID {
		return nil
	}

	if frame.Length < 2 {
		h.log.Debug("Dropping malformed diagnostic request (%d bytes)", frame.Length)
		return nil
	}

	mode := frame.Data[1]
	var pid byte
	if frame.Length >= 3 {
		pid = frame.Data[2]
	}

	switch mode {
	case ModeCurrentData:
		return h.sender.Publish(h.buildMode01(pid))

	case ModeReadDTC, ModeClearDTC, ModeVehicleInfo:
		h.log.Info("Diagnostic mode 0x%02X not implemented, ignoring request", mode)
		return nil

	default:
		h.log.Info("Unknown diagnostic mode 0x%02X, ignoring request", mode)
		return nil
	}
}

// buildMode01 answers a Mode 01 request. Payload layout:
// [num_bytes] [0x41] [pid] [data...], or the negative form
// [0x03] [0x7F] [0x01] [0x12] for unrecognized PIDs.
func (h *Handler) buildMode01(pid byte) can.Frame {
	switch pid {
	case PIDSupported0120, PIDSupported2140:
		bm := supportedBitmap(pid)
		return packFrame(OBDEngineRespID, []byte{
			6, ModeCurrentData + responseOffset, pid, bm[0], bm[1], bm[2], bm[3],
		})
	}

	encode, ok := mode01Signals[pid]
	if !ok {
		h.log.Debug("Unsupported PID 0x%02X, sending negative response", pid)
		return packFrame(OBDEngineRespID, []byte{
			3, negativeSID, ModeCurrentData, nrcSubFunctionNotSupported,
		})
	}

	payload := encode(h.state)
	data := make([]byte, 0, 3+len(payload))
	data = append(data, byte(2+len(payload)), ModeCurrentData+responseOffset, pid)
	data = append(data, payload...)
	return packFrame(OBDEngineRespID, data)
}
