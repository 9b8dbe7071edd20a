// artpoll broadcasts an ArtPoll and prints every Art-Net node that
// replies. Useful for checking what the show's frames can reach.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"lume/lib/artnet"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "how long to wait for replies")
	flag.Parse()

	fmt.Printf("Polling for Art-Net nodes (%v)...\n", *timeout)
	nodes, err := artnet.Discover(*timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(nodes) == 0 {
		fmt.Println("No nodes replied.")
		return
	}
	for _, n := range nodes {
		fmt.Printf("%-18s %s\n", n.Name, n.IP)
	}
}
