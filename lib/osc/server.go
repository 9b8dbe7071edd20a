package osc

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"lume/lib/show"
)

// DefaultPort is where the server listens unless told otherwise.
const DefaultPort = 53000

// Server answers OSC messages that steer a show:
//
//	/tempo <bpm>             set the metronome tempo
//	/beats-per-bar <n>       set the bar length
//	/bars-per-phrase <n>     set the phrase length
//	/restart                 move beat one of bar one to now
//	/master <level>          set the grand master, 0-100
//	/vars/<key> <value>      set a show variable (no argument deletes)
//	/effects/end <key>       ask a keyed effect to end
//	/effects/clear           end every effect
//
// Addresses carrying no state change reply nothing; unknown addresses
// are logged and dropped.
type Server struct {
	show *show.Show
	conn *net.UDPConn
	stop chan struct{}
}

// NewServer binds the control port. The addr is host:port; an empty
// host listens on every interface.
func NewServer(s *show.Show, addr string) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("osc: bad listen address %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("osc: %w", err)
	}
	return &Server{show: s, conn: conn, stop: make(chan struct{})}, nil
}

// Serve reads and dispatches messages until Close. Run it on its own
// goroutine.
func (s *Server) Serve() {
	buf := make([]byte, 2048)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}
			slog.Warn("control socket read failed", "err", err)
			return
		}
		addr, args, err := Decode(buf[:n])
		if err != nil {
			slog.Warn("bad control message", "err", err)
			continue
		}
		s.dispatch(addr, args)
	}
}

func (s *Server) Close() error {
	close(s.stop)
	return s.conn.Close()
}

func (s *Server) dispatch(addr string, args []any) {
	if key, ok := strings.CutPrefix(addr, "/vars/"); ok {
		s.setVariable(key, args)
		return
	}

	switch addr {
	case "/tempo":
		if bpm, ok := firstNumber(args); ok && bpm > 0 {
			s.show.Metronome.SetTempo(bpm)
			slog.Info("tempo set remotely", "bpm", bpm)
		}
	case "/beats-per-bar":
		if n, ok := firstNumber(args); ok {
			s.show.Metronome.SetBeatsPerBar(int(n))
		}
	case "/bars-per-phrase":
		if n, ok := firstNumber(args); ok {
			s.show.Metronome.SetBarsPerPhrase(int(n))
		}
	case "/restart":
		s.show.Metronome.Restart()
	case "/master":
		if level, ok := firstNumber(args); ok {
			s.show.GrandMaster.SetLevel(level)
		}
	case "/effects/end":
		if len(args) > 0 {
			if key, ok := args[0].(string); ok {
				s.show.EndEffect(key)
			}
		}
	case "/effects/clear":
		s.show.ClearEffects()
	default:
		slog.Debug("unknown control address", "addr", addr)
	}
}

// setVariable stores the first argument under the key. Numbers of any
// OSC width become float64 so parameters can consume them; a missing or
// nil argument deletes the variable.
func (s *Server) setVariable(key string, args []any) {
	if key == "" {
		return
	}
	if len(args) == 0 || args[0] == nil {
		s.show.Vars.Set(key, nil)
		return
	}
	if n, ok := number(args[0]); ok {
		s.show.Vars.Set(key, n)
		return
	}
	s.show.Vars.Set(key, args[0])
}

func firstNumber(args []any) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	return number(args[0])
}
