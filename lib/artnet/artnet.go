// Package artnet sends finished DMX frames to nodes over UDP using the
// Art-Net protocol, and discovers nodes on the local network.
package artnet

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	// Port is the fixed UDP port Art-Net uses for all traffic.
	Port = 6454

	protocolVersion = 14

	opDMX       = 0x5000
	opPoll      = 0x2000
	opPollReply = 0x2100
	opSync      = 0x5200
)

var packetID = []byte("Art-Net\x00")

// dmxPacket builds an ArtDmx packet. The universe's low byte is the
// SubUni field and its high seven bits the Net field. A zero sequence
// tells the node not to reorder.
func dmxPacket(seq uint8, universe uint16, data []byte) []byte {
	pkt := make([]byte, 18+len(data))
	copy(pkt, packetID)
	binary.LittleEndian.PutUint16(pkt[8:], opDMX)
	pkt[10], pkt[11] = 0, protocolVersion
	pkt[12] = seq
	pkt[13] = 0 // physical input port, informational only
	pkt[14] = byte(universe & 0xFF)
	pkt[15] = byte(universe >> 8 & 0x7F)
	binary.BigEndian.PutUint16(pkt[16:], uint16(len(data)))
	copy(pkt[18:], data)
	return pkt
}

// syncPacket builds an ArtSync packet, telling nodes to latch their
// buffered universes simultaneously.
func syncPacket() []byte {
	pkt := make([]byte, 14)
	copy(pkt, packetID)
	binary.LittleEndian.PutUint16(pkt[8:], opSync)
	pkt[10], pkt[11] = 0, protocolVersion
	return pkt
}

// pollPacket builds an ArtPoll broadcast asking nodes to identify
// themselves.
func pollPacket() []byte {
	pkt := make([]byte, 14)
	copy(pkt, packetID)
	binary.LittleEndian.PutUint16(pkt[8:], opPoll)
	pkt[10], pkt[11] = 0, protocolVersion
	pkt[12] = 0x06 // send replies without further polling
	pkt[13] = 0
	return pkt
}

// Node is one Art-Net device seen on the network.
type Node struct {
	Name string
	IP   net.IP
}

// parsePollReply extracts the node's short name from an ArtPollReply.
func parsePollReply(buf []byte, from net.IP) (Node, bool) {
	if len(buf) < 44 || string(buf[:8]) != string(packetID) {
		return Node{}, false
	}
	if binary.LittleEndian.Uint16(buf[8:]) != opPollReply {
		return Node{}, false
	}
	name := buf[26:44]
	for i, b := range name {
		if b == 0 {
			name = name[:i]
			break
		}
	}
	return Node{Name: string(name), IP: from}, true
}

// resolveTarget parses a node address, defaulting to the Art-Net port.
func resolveTarget(target string) (*net.UDPAddr, error) {
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = fmt.Sprintf("%s:%d", target, Port)
	}
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("artnet: bad target %q: %w", target, err)
	}
	return addr, nil
}
