// clocktest follows MIDI clock from an input port and prints the tempo
// the metronome derives from it, for checking sync against a DJ
// controller or sequencer before a show.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"lume/lib/midisync"
	"lume/lib/rhythm"
)

func main() {
	portName := flag.String("port", "", "substring of the MIDI input port name")
	flag.Parse()

	defer midi.CloseDriver()

	port, err := midisync.FindInPort(*portName)
	if err != nil {
		fmt.Println("Available MIDI input ports:")
		for _, p := range midi.GetInPorts() {
			fmt.Printf("  %s\n", p)
		}
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}

	metronome := rhythm.New(rhythm.DefaultTempo)
	listener, err := midisync.Listen(port, metronome)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer listener.Stop()

	fmt.Printf("Following clock on: %s\n", port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := metronome.Snapshot()
			state := "stopped"
			if listener.Running() {
				state = "running"
			}
			fmt.Printf("%.1f BPM  %s  pulses=%d  %s\n",
				snap.Tempo, snap.Marker(), listener.Ticks(), state)
		case <-sig:
			fmt.Println()
			return
		}
	}
}
