package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"lume/lib/artnet"
	"lume/lib/fixture"
	"lume/lib/fx"
	"lume/lib/midisync"
	"lume/lib/osc"
	"lume/lib/oscillator"
	"lume/lib/params"
	"lume/lib/show"
)

func main() {
	config := flag.String("config", "show.yaml", "fixture profile and patch config")
	target := flag.String("target", "255.255.255.255", "Art-Net node address (host or host:port)")
	midiPort := flag.String("midi", "", "follow MIDI clock from the first input port matching this substring")
	tempo := flag.Float64("tempo", 120, "starting tempo in BPM")
	master := flag.Float64("master", 100, "grand master level, 0-100")
	artSync := flag.Bool("artsync", false, "follow each frame with an ArtSync packet")
	control := flag.String("control", "", "OSC remote control listen address, e.g. :53000")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	defer midi.CloseDriver()

	if err := run(*config, *target, *midiPort, *control, *tempo, *master, *artSync); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(config, target, midiPort, control string, tempo, master float64, artSync bool) error {
	patch, err := fixture.LoadPatch(config)
	if err != nil {
		return err
	}

	s := show.New(patch)
	s.Metronome.SetTempo(tempo)
	s.GrandMaster.SetLevel(master)

	sender, err := artnet.NewSender(target)
	if err != nil {
		return err
	}
	defer sender.Close()
	sender.FollowWithSync = artSync
	s.SetSink(sender.Send)

	if midiPort != "" {
		port, err := midisync.FindInPort(midiPort)
		if err != nil {
			fmt.Println("Available MIDI input ports:")
			for _, p := range midi.GetInPorts() {
				fmt.Printf("  %s\n", p)
			}
			return err
		}
		listener, err := midisync.Listen(port, s.Metronome)
		if err != nil {
			return err
		}
		defer listener.Stop()
	}

	if control != "" {
		server, err := osc.NewServer(s, control)
		if err != nil {
			return err
		}
		defer server.Close()
		go server.Serve()
		slog.Info("remote control listening", "addr", control)
	}

	if err := addDemoLook(s); err != nil {
		return err
	}

	if err := s.Start(show.DefaultFrameInterval); err != nil {
		return err
	}
	defer s.Stop()

	fmt.Printf("Running %d fixtures against %s at %.0f BPM\n",
		len(patch.Fixtures()), target, s.Metronome.Tempo())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	status := time.NewTicker(10 * time.Second)
	defer status.Stop()
	for {
		select {
		case <-status.C:
			snap := s.Metronome.Snapshot()
			slog.Debug("running", "marker", snap.Marker(), "tempo", snap.Tempo)
		case <-sig:
			fmt.Println()
			return nil
		}
	}
}

// addDemoLook pulses every dimmer with a sine synced to the bar and
// holds a blue wash, so a bare rig shows something beat-locked to verify
// timing against.
func addDemoLook(s *show.Show) error {
	heads := s.Patch.Heads()

	sine, err := oscillator.Sine(oscillator.Bar())
	if err != nil {
		return err
	}
	pulse, err := params.Oscillated(sine, 20, 255)
	if err != nil {
		return err
	}
	dimmer, err := fx.Dimmer("bar pulse", pulse, heads, s.GrandMaster, true)
	if err != nil {
		return err
	}
	s.AddEffect(dimmer, show.WithKey("dimmer"))

	color, err := fx.Color("blue wash", "#2040ff", heads, false)
	if err != nil {
		return err
	}
	s.AddEffect(color, show.WithKey("color"))
	return nil
}
