package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orangebot/core"
	"orangebot/host/config"
	"orangebot/host/logging"
	"orangebot/host/serial"
	"orangebot/sim"
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults apply when empty)")
	device     = flag.String("device", "", "Serial device or pseudo terminal to serve, overrides the config")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *device != "" {
		cfg.Sim.Device = *device
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	if cfg.Sim.Device == "" {
		log.Fatal("usage: orangebot-sim -device <tty>")
	}

	_, logFile := logging.Setup(cfg.Log, "[sim] ")
	defer logFile.Close()

	// Board debug output goes to the host log
	core.SetDebugWriter(func(msg string) { log.Println(msg) })
	core.SetDebugEnabled(cfg.Log.Debug)
	core.InitAsyncDebug()

	boardCfg := sim.DefaultConfig()
	boardCfg.Core.Signature = cfg.Sim.Signature
	boardCfg.Core.EncoderChannels = cfg.Link.Encoders
	boardCfg.TickPeriod = time.Duration(cfg.Sim.TickPeriodUs) * time.Microsecond
	boardCfg.Plant.CountsPerTick = cfg.Sim.CountsPerTick
	boardCfg.Plant.Response = cfg.Sim.Response

	board, err := sim.NewBoard(boardCfg)
	if err != nil {
		log.Fatalf("board init failed: %v", err)
	}

	portCfg := cfg.Serial
	portCfg.Device = cfg.Sim.Device
	port, err := serial.Open(portCfg)
	if err != nil {
		log.Fatalf("serial open failed: %v", err)
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("simulated board %q serving %s", boardCfg.Core.Signature, portCfg.Device)
	if err := board.Run(ctx, port); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("board stopped: %v", err)
	}

	s := board.Device().Stats()
	log.Printf("ticks=%d control=%d aborted=%d overruns=%d rx_dropped=%d tx_dropped=%d frame_errors=%d",
		s.Ticks, s.ControlTicks, s.AbortedTicks, s.Overruns, s.RxDropped, s.TxFramesDropped, s.FrameErrors)
	core.DumpEvents()
}
