package main

import (
	"time"

	"vtu-service/vtu"
)

type LogLevel int

const (
	LogLevelNone  LogLevel = 0
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

type Options struct {
	LogLevel          LogLevel
	CANDevice         string
	RedisServerAddr   string
	RedisServerPort   uint16
	TelemetryEnabled  bool
	TelemetryInterval time.Duration
	Broadcast         vtu.BroadcastPeriods
}
