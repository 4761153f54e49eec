// Command ghostdrawer runs the paint execution engine's HTTP/WebSocket
// daemon: it serves the routes of spec §6, owns the singleton session
// supervisor, and writes HID reports to the kernel-exported gamepad
// endpoint.
//
// Flag-parsed config struct handed to a run function that returns an
// error, os.Exit(1) on failure.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/api"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/config"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/hidtransport"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/logging"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/observerws"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/planner"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/registry"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/session"

	"github.com/google/uuid"
)

func main() {
	cfg := config.Default()

	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.HIDDevice, "hid-device", cfg.HIDDevice, "Path to the kernel-exported HID gadget endpoint")
	flag.BoolVar(&cfg.LogDebug, "debug", cfg.LogDebug, "Enable debug-level logging")
	flag.StringVar(&cfg.DefaultStrategy, "strategy", cfg.DefaultStrategy, "Default path planner strategy")
	flag.IntVar(&cfg.PressMs, "press-ms", cfg.PressMs, "Default press hold, milliseconds")
	flag.IntVar(&cfg.ReleaseMs, "release-ms", cfg.ReleaseMs, "Default release gap, milliseconds")
	flag.IntVar(&cfg.WaitMs, "wait-ms", cfg.WaitMs, "Default post-draw settle, milliseconds")
	flag.IntVar(&cfg.Repeats, "repeats", cfg.Repeats, "Default repeat count")
	flag.BoolVar(&cfg.SkipInitialization, "skip-init", cfg.SkipInitialization, "Skip the handshake sequence by default")

	listStrategies := flag.Bool("list-strategies", false, "Print the available path planner strategies and exit")
	hardwareStatus := flag.Bool("hardware-status", false, "Print a one-shot hardware probe and exit")
	flag.Parse()

	if *listStrategies {
		for _, s := range planner.All() {
			fmt.Println(s.Name())
		}
		return
	}
	if *hardwareStatus {
		status := hidtransport.ProbeHardware(cfg.HIDDevice)
		fmt.Printf("console_connected=%v gadget_available=%v hid_device_available=%v\n",
			status.ConsoleConnected, status.GadgetAvailable, status.HIDDeviceAvailable)
		for k, v := range status.Details {
			fmt.Printf("  %s: %s\n", k, v)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	if err := run(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logging.New("ghostdrawer")
	log.SetDebug(cfg.LogDebug)

	transport := hidtransport.New(cfg.HIDDevice)
	if err := transport.Open(); err != nil {
		log.Warn("hid endpoint not ready at startup: %v (will reacquire on first use)", err)
	}

	reg := registry.New()
	sup := session.New(transport, reg, log, uuid.NewString)

	log.AddSink(observerws.LogSink(sup))

	server := api.New(reg, sup, cfg.HIDDevice)
	mux := server.Router()
	mux.Handle("/ws/logs", observerws.NewHandler(sup, log))

	log.Info("listening on %s", cfg.HTTPAddr)
	return http.ListenAndServe(cfg.HTTPAddr, mux)
}
