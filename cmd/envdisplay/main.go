package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/alive/v2"
	"github.com/temoto/envdisplay/display"
	"github.com/temoto/envdisplay/hardware/uart"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/monitor"
	"github.com/temoto/envdisplay/state"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)

func main() {
	flagConfig := flag.String("config", "", "HCL config file, defaults are used when empty")
	flagVersion := flag.Bool("version", false, "print build version and exit")
	flag.Parse()

	if *flagVersion {
		fmt.Printf("envdisplay %s\n", BuildVersion)
		return
	}

	if sdnotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	} else {
		log.SetFlags(log2.LStdFlags)
	}

	config := state.DefaultConfig()
	if *flagConfig != "" {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	}
	level, _ := log2.ParseLevel(config.LogLevel) // validated
	log.SetLevel(level)

	if config.Debug.SerialDevice != "" {
		w, err := uart.Open(config.Debug.SerialDevice, config.Debug.SerialBaud)
		if err != nil {
			log.Errorf("debug serial: %v", errors.ErrorStack(err))
		} else {
			defer w.Close()
			serial := log2.NewWriter(io.MultiWriter(os.Stderr, w), level)
			serial.SetFlags(log2.LServiceFlags)
			log = serial
		}
	}
	log.Debugf("envdisplay version=%s config=%+v", BuildVersion, config)

	// signals stop the loop from here on, Setup included
	a := alive.NewAlive()
	stopOnSignal(a, syscall.SIGINT, syscall.SIGTERM)

	hw := state.NewHardware(config, log)
	surface, err := hw.Surface()
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	m := monitor.New(display.NewScreen(surface, log), hw.Sensor(), log)
	m.Setup()

	sdnotify(daemon.SdNotifyReady)
	m.Run(a)
	a.Stop()
	a.Wait()

	sdnotify(daemon.SdNotifyStopping)
	if err := m.Shutdown(); err != nil {
		log.Error(errors.Annotate(err, "shutdown"))
	}
	if err := hw.Close(); err != nil {
		log.Error(errors.Annotate(err, "i2c close"))
	}
	log.Infof("%s", m.Stat.String())
}

func stopOnSignal(a *alive.Alive, sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		select {
		case sig := <-ch:
			log.Infof("signal=%v stopping", sig)
			a.Stop()
		case <-a.StopChan():
		}
		signal.Stop(ch)
	}()
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
