package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brutella/can"
	"github.com/go-redis/redis/v8"

	"vtu-service/vtu"
)

const (
	// Scheduling pass granularity; each broadcast period is a multiple of it.
	SimAppTickInterval = time.Millisecond
	simTickSeconds     = 0.001
)

type SimApp struct {
	log         *LeveledLogger
	redis       *redis.Client
	bus         *vtu.Bus
	state       *vtu.VehicleState
	sim         *vtu.Simulator
	broadcaster *vtu.Broadcaster
	obd         *vtu.Handler
	telemetry   *Telemetry
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

// busTap forwards broadcast frames to the in-process telemetry reader in
// addition to the bus itself, giving it the same view an external bus
// listener would have.
type busTap struct {
	bus       *vtu.Bus
	telemetry *Telemetry
}

func (t *busTap) Publish(frame can.Frame) error {
	if t.telemetry != nil {
		t.telemetry.HandleFrame(frame)
	}
	return t.bus.Publish(frame)
}

func NewSimApp(opts *Options) (*SimApp, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &SimApp{
		log:    NewLeveledLogger(log.New(log.Writer(), fmt.Sprintf("%s ", ProjectName), log.LstdFlags), opts.LogLevel),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if opts.TelemetryEnabled {
		app.redis = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", opts.RedisServerAddr, opts.RedisServerPort),
			Password:     "",
			DB:           0,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		defer connectCancel()

		app.log.Printf("Connecting to Redis at %s:%d...", opts.RedisServerAddr, opts.RedisServerPort)
		if err := app.redis.Ping(connectCtx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %v", err)
		}
		app.log.Printf("Successfully connected to Redis")

		app.telemetry = NewTelemetry(app.log, app.redis, opts.TelemetryInterval)
		app.log.Printf("Telemetry component initialized")

		go app.redisHealthCheck()
	}

	bus, err := vtu.OpenBus(app.log, opts.CANDevice)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize CAN bus: %v", err)
	}
	app.bus = bus

	// Only diagnostic requests are surfaced by the receive path.
	bus.SetFilters([]vtu.Filter{
		{ID: vtu.OBDBroadcastID, Mask: vtu.StandardIDMask},
		{ID: vtu.OBDEngineReqID, Mask: vtu.StandardIDMask},
	})

	app.state = vtu.NewVehicleState()
	app.sim = vtu.NewSimulator(app.state)
	app.broadcaster = vtu.NewBroadcaster(app.log, &busTap{bus: bus, telemetry: app.telemetry}, app.state, opts.Broadcast)
	app.obd = vtu.NewHandler(app.log, bus, app.state)

	app.log.Printf("ECU simulator broadcasting on %s", opts.CANDevice)
	app.log.Printf("  Engine Data 1 (0x%03X): every %v", vtu.EngineData1ID, opts.Broadcast.Engine1)
	app.log.Printf("  Engine Data 2 (0x%03X): every %v", vtu.EngineData2ID, opts.Broadcast.Engine2)
	app.log.Printf("  Transmission  (0x%03X): every %v", vtu.TransDataID, opts.Broadcast.Trans)
	app.log.Printf("  Body Control  (0x%03X): every %v", vtu.BCMDataID, opts.Broadcast.BCM)
	app.log.Printf("  OBD-II responses on 0x%03X", vtu.OBDEngineRespID)

	go app.run()

	return app, nil
}

// run is the single simulation loop. It owns the VehicleState: within one
// iteration the state is advanced first, then the scheduler is evaluated,
// then pending diagnostic requests are answered, so every frame sent in an
// iteration reflects that iteration's snapshot.
func (app *SimApp) run() {
	defer close(app.done)

	ticker := time.NewTicker(SimAppTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case now := <-ticker.C:
			app.sim.Tick(simTickSeconds)
			app.broadcaster.Poll(now)

			for {
				rx, err := app.bus.Receive(0)
				if err != nil {
					break
				}
				if err := app.obd.HandleFrame(rx.Frame); err != nil {
					app.log.Error("Error answering diagnostic request: %v", err)
				}
			}
		}
	}
}

func (app *SimApp) redisHealthCheck() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(app.ctx, 2*time.Second)
			if err := app.redis.Ping(ctx).Err(); err != nil {
				app.log.Error("Redis health check failed: %v", err)
			}
			cancel()
		}
	}
}

func (app *SimApp) Destroy() {
	app.log.Printf("Shutting down ECU simulator...")

	if app.cancel != nil {
		app.cancel()
	}
	<-app.done
	app.log.Printf("Simulation loop stopped")

	if app.telemetry != nil {
		app.telemetry.Destroy()
		app.log.Printf("Telemetry shutdown complete")
	}

	if app.bus != nil {
		if err := app.bus.Close(); err != nil {
			app.log.Error("Error closing CAN bus: %v", err)
		} else {
			app.log.Printf("CAN bus closed")
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error("Error closing Redis connection: %v", err)
		} else {
			app.log.Printf("Redis connection closed")
		}
	}

	app.log.Printf("ECU simulator shutdown complete")
}
