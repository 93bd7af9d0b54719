package vtu

// Broadcast CAN IDs (ECU -> bus).
const (
	EngineData1ID = 0x100 // RPM, coolant, throttle, MAF, load
	EngineData2ID = 0x101 // intake temp, load
	TransDataID   = 0x200 // gear, fluid temp, vehicle speed
	BCMDataID     = 0x300 // fuel level, odometer
)

// OBD-II diagnostic CAN IDs (ISO 15765-4).
const (
	OBDBroadcastID  = 0x7DF // tester broadcast request
	OBDEngineReqID  = 0x7E0 // direct request to engine ECU
	OBDEngineRespID = 0x7E8 // engine ECU response
)

// StandardIDMask masks received identifiers to the 11-bit standard range.
const StandardIDMask = 0x7FF

// Gear encoding for the transmission byte.
const (
	GearNeutral = 0
	GearTop     = 6
	GearReverse = 7
)

// VehicleState is the canonical simulated vehicle snapshot. It is owned and
// mutated exclusively by the Simulator; the codec, broadcaster and OBD-II
// handler only read it.
type VehicleState struct {
	// Engine
	RPM         float64 // 0 - 16383.75 rpm
	CoolantTemp float64 // -40 - 215 degC
	Throttle    float64 // 0 - 100 %
	MAF         float64 // 0 - 655.35 g/s
	EngineLoad  float64 // 0 - 100 %
	IntakeTemp  float64 // -40 - 215 degC

	// Transmission
	Gear      int     // 0=N, 1-6 forward, 7=R
	FluidTemp float64 // -40 - 215 degC

	// Body
	FuelLevel    float64 // 0 - 100 %
	Odometer     uint32  // km, never decreases
	VehicleSpeed float64 // 0 - 255 km/h

	// Simulated seconds since start, monotonic.
	SimTime float64
}

// NewVehicleState returns the warm-idle startup snapshot.
func NewVehicleState() *VehicleState {
	return &VehicleState{
		RPM:          800.0,
		CoolantTemp:  85.0,
		Throttle:     15.0,
		MAF:          5.0,
		EngineLoad:   20.0,
		IntakeTemp:   25.0,
		Gear:         GearNeutral,
		FluidTemp:    60.0,
		FuelLevel:    75.0,
		Odometer:     45231,
		VehicleSpeed: 0.0,
	}
}
