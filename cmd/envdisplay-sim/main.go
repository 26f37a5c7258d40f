// Host simulator: mock display and simulated sensor driven by commands.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/envdisplay/display"
	"github.com/temoto/envdisplay/helpers/cli"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/monitor"
	"github.com/temoto/envdisplay/sensor"
)

const usage = `commands:
- set T H  sensor returns temperature T, humidity H ("nan" allowed)
- fail     sensor read fails
- ok       sensor read succeeds
- poll     run one poll now
- show     print display buffer
- stat     print poll counters
- quit     exit
`

var log = log2.NewStderr(log2.LDebug)

type sim struct {
	m      *monitor.Monitor
	sensor *sensor.Sim
	mock   *display.Pixel
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	temperature := cmdline.Float64("t", 23.45, "initial temperature")
	humidity := cmdline.Float64("h", 60.2, "initial humidity")
	scale := cmdline.Int("scale", 2, "text scale 1|2")
	noDisplay := cmdline.Bool("no-display", false, "simulate display init failure")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	s := &sim{
		sensor: sensor.NewSim(sensor.Reading{Temperature: *temperature, Humidity: *humidity}, 0),
		mock:   display.NewMock(image.Pt(128, 64), *scale),
	}
	var surface display.Surface = s.mock
	if *noDisplay {
		surface = nil
	}
	s.m = monitor.New(display.NewScreen(surface, log), s.sensor, log)
	s.m.Setup()

	cli.MainLoop("envdisplay-sim", s.exec, cli.FilterPrefix([]prompt.Suggest{
		{Text: "set", Description: "set T H"},
		{Text: "fail", Description: "sensor read fails"},
		{Text: "ok", Description: "sensor read succeeds"},
		{Text: "poll", Description: "run one poll now"},
		{Text: "show", Description: "print display buffer"},
		{Text: "stat", Description: "print poll counters"},
		{Text: "quit", Description: "exit"},
	}), s.shutdown)
	s.shutdown()
}

func (s *sim) exec(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	switch words[0] {
	case "help":
		log.Infof(usage)
	case "set":
		if len(words) != 3 {
			log.Errorf("syntax: set T H")
			return
		}
		t, err1 := strconv.ParseFloat(words[1], 64)
		h, err2 := strconv.ParseFloat(words[2], 64)
		if err1 != nil || err2 != nil {
			log.Errorf("set: invalid number line=%q", line)
			return
		}
		s.sensor.Set(sensor.Reading{Temperature: t, Humidity: h})
	case "fail":
		s.sensor.SetFail(true)
	case "ok":
		s.sensor.SetFail(false)
	case "poll":
		s.m.Poll(time.Now())
	case "show":
		fmt.Print(s.mock.String())
	case "stat":
		log.Infof("%s", s.m.Stat.String())
	case "quit", "exit":
		s.shutdown()
		os.Exit(0)
	default:
		log.Error(errors.NotSupportedf("command=%s", words[0]))
	}
}

func (s *sim) shutdown() {
	if err := s.m.Shutdown(); err != nil {
		log.Error(err)
	}
}
