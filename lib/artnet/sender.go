package artnet

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Sender transmits DMX universes to one Art-Net node. Send matches the
// show's frame sink signature, so a sender plugs straight into the
// frame loop. Sequence numbers run per universe so nodes can drop
// out-of-order frames.
type Sender struct {
	conn *net.UDPConn
	addr *net.UDPAddr

	mu  sync.Mutex
	seq map[int]uint8

	// FollowWithSync latches each batch of universes with an ArtSync,
	// for rigs spanning several universes that must update as one.
	FollowWithSync bool
}

// NewSender opens a UDP socket toward a node. The target is a host or
// host:port; the port defaults to the Art-Net port.
func NewSender(target string) (*Sender, error) {
	addr, err := resolveTarget(target)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("artnet: %w", err)
	}
	return &Sender{conn: conn, addr: addr, seq: map[int]uint8{}}, nil
}

// Send transmits one universe's 512-byte frame.
func (s *Sender) Send(universe int, frame []byte) error {
	if universe < 0 || universe > 0x7FFF {
		return fmt.Errorf("artnet: universe %d out of range", universe)
	}
	s.mu.Lock()
	// Sequence runs 1-255; zero would disable reordering at the node.
	seq := s.seq[universe]%255 + 1
	s.seq[universe] = seq
	s.mu.Unlock()

	pkt := dmxPacket(seq, uint16(universe), frame)
	if _, err := s.conn.WriteToUDP(pkt, s.addr); err != nil {
		return fmt.Errorf("artnet: send universe %d: %w", universe, err)
	}
	if s.FollowWithSync {
		return s.Sync()
	}
	return nil
}

// Sync tells the node to latch everything received since the last sync.
func (s *Sender) Sync() error {
	if _, err := s.conn.WriteToUDP(syncPacket(), s.addr); err != nil {
		return fmt.Errorf("artnet: sync: %w", err)
	}
	return nil
}

func (s *Sender) Close() error {
	return s.conn.Close()
}

// Discover broadcasts an ArtPoll and collects replies until the timeout
// expires. It listens on the Art-Net port itself, since nodes reply to
// the port rather than to the poll's source.
func Discover(timeout time.Duration) ([]Node, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: Port})
	if err != nil {
		return nil, fmt.Errorf("artnet: %w", err)
	}
	defer conn.Close()

	bcast := &net.UDPAddr{IP: broadcastAddress(), Port: Port}
	if _, err := conn.WriteToUDP(pollPacket(), bcast); err != nil {
		return nil, fmt.Errorf("artnet: poll: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	var nodes []Node
	buf := make([]byte, 1024)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nodes, nil
		}
		if node, ok := parsePollReply(buf[:n], addr.IP); ok {
			nodes = append(nodes, node)
		}
	}
}

// broadcastAddress picks the directed broadcast address of the first
// usable IPv4 interface, falling back to the limited broadcast.
func broadcastAddress() net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPv4bcast
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || len(ipnet.Mask) != 4 {
				continue
			}
			bcast := make(net.IP, 4)
			for i := 0; i < 4; i++ {
				bcast[i] = ip[i] | ^ipnet.Mask[i]
			}
			return bcast
		}
	}
	return net.IPv4bcast
}
