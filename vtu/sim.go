package vtu

import "math"

// Driving cycle phase boundaries, in seconds within the 60 s cycle.
const (
	cycleLength = 60.0
	idleEnd     = 10.0
	accelEnd    = 25.0
	cruiseEnd   = 45.0
)

// Simulator advances a VehicleState through a repeating driving cycle:
// idle -> accelerate -> cruise -> decelerate. The state machine is
// deterministic given elapsed simulated time and tick size and takes no
// other inputs.
type Simulator struct {
	state *VehicleState
}

func NewSimulator(state *VehicleState) *Simulator {
	return &Simulator{state: state}
}

// State returns the snapshot the simulator owns.
func (sim *Simulator) State() *VehicleState {
	return sim.state
}

// Tick advances the simulation by dt seconds. Primary signals follow the
// cycle phase; load, MAF, temperatures, fuel and odometer are derived
// afterwards, in that order.
func (sim *Simulator) Tick(dt float64) {
	s := sim.state
	s.SimTime += dt

	cycle := math.Mod(s.SimTime, cycleLength)

	switch {
	case cycle < idleEnd:
		s.RPM = 800.0 + 50.0*math.Sin(s.SimTime*2.0)
		s.Throttle = 0.0
		s.VehicleSpeed = 0.0
		s.Gear = GearNeutral

	case cycle < accelEnd:
		p := (cycle - idleEnd) / (accelEnd - idleEnd)
		s.RPM = 800.0 + 4200.0*p
		s.Throttle = 30.0 + 50.0*p
		s.VehicleSpeed = 120.0 * p
		s.Gear = 1 + int(p*5)
		if s.Gear > GearTop {
			s.Gear = GearTop
		}

	case cycle < cruiseEnd:
		s.RPM = 2500.0 + 200.0*math.Sin(s.SimTime*0.5)
		s.Throttle = 25.0 + 5.0*math.Sin(s.SimTime*0.3)
		s.VehicleSpeed = 100.0 + 10.0*math.Sin(s.SimTime*0.2)
		s.Gear = GearTop

	default:
		p := (cycle - cruiseEnd) / (cycleLength - cruiseEnd)
		s.RPM = 2500.0 - 1700.0*p
		s.Throttle = 25.0 * (1.0 - p)
		s.VehicleSpeed = 100.0 * (1.0 - p)
		s.Gear = GearTop - int(p*5)
		if s.Gear < GearNeutral {
			s.Gear = GearNeutral
		}
	}

	// Load correlates with throttle, MAF with RPM and load.
	s.EngineLoad = s.Throttle*0.8 + 10.0
	s.MAF = (s.RPM / 1000.0) * (s.EngineLoad / 100.0) * 15.0

	// Temperatures vary slowly.
	s.CoolantTemp = 85.0 + 10.0*math.Sin(s.SimTime*0.01)
	s.FluidTemp = 70.0 + 20.0*(s.EngineLoad/100.0)
	s.IntakeTemp = 25.0 + 5.0*math.Sin(s.SimTime*0.05)

	// Fuel drains at 0.01 %/s and wraps back to full after 50 units,
	// modelling a refill.
	s.FuelLevel = 75.0 - math.Mod(s.SimTime*0.01, 50.0)

	// Truncated integer increment: sub-kilometre progress within a tick is
	// discarded, the counter never goes backwards.
	s.Odometer += uint32(s.VehicleSpeed * dt / 3600.0)
}
