package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var (
	version     = flag.Bool("version", false, "Print version info")
	help        = flag.Bool("help", false, "Print help")
	configPath  = flag.String("config", "", "Path to YAML config file")
	logLevel    = flag.Int("log", 3, "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	redisServer = flag.String("redis_server", "127.0.0.1", "Redis server address")
	redisPort   = flag.Int("redis_port", 6379, "Redis server port")
	canDevice   = flag.String("can_device", "vcan0", "CAN device name")
	noTelemetry = flag.Bool("no_telemetry", false, "Disable Redis telemetry publishing")
)

const (
	ProjectName    = "vtu-sim"
	ProjectVersion = "1.0.0"
)

func printVersion() {
	fmt.Printf("%s v%s\n", ProjectName, ProjectVersion)
}

func printHelp() {
	printVersion()
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg := LoadConfig(*configPath)

	// Flags set on the command line override file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log":
			cfg.LogLevel = *logLevel
		case "redis_server":
			cfg.Redis.Server = *redisServer
		case "redis_port":
			cfg.Redis.Port = uint16(*redisPort)
		case "can_device":
			cfg.CANDevice = *canDevice
		case "no_telemetry":
			cfg.Telemetry.Enabled = !*noTelemetry
		}
	})

	if cfg.LogLevel < int(LogLevelNone) || cfg.LogLevel > int(LogLevelDebug) {
		log.Fatalf("invalid log level %d", cfg.LogLevel)
	}

	app, err := NewSimApp(cfg.Options())
	if err != nil {
		log.Fatalf("failed to create simulator app: %v", err)
	}
	defer app.Destroy()

	// Handle SIGINT and SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run until signal received
	<-sigChan
}
