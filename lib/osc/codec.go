// Package osc exposes remote control of a running show over UDP OSC:
// tempo and transport, the grand master, show variables and effect
// lifecycle, so tablets and lighting consoles can steer the engine.
package osc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// OSC strings and blobs are padded to four-byte boundaries.
func pad(n int) int {
	return (4 - n%4) % 4
}

func appendPadded(buf, s []byte) []byte {
	buf = append(buf, s...)
	buf = append(buf, 0)
	for i := 0; i < pad(len(s)+1); i++ {
		buf = append(buf, 0)
	}
	return buf
}

// Encode builds an OSC message. Supported argument types: int32, int64,
// float32, float64, string, []byte, bool and nil.
func Encode(addr string, args ...any) []byte {
	var buf []byte
	buf = appendPadded(buf, []byte(addr))

	typetag := ","
	for _, arg := range args {
		switch arg.(type) {
		case int32:
			typetag += "i"
		case int64:
			typetag += "h"
		case float32:
			typetag += "f"
		case float64:
			typetag += "d"
		case string:
			typetag += "s"
		case []byte:
			typetag += "b"
		case bool:
			if arg.(bool) {
				typetag += "T"
			} else {
				typetag += "F"
			}
		case nil:
			typetag += "N"
		}
	}
	buf = appendPadded(buf, []byte(typetag))

	for _, arg := range args {
		switch v := arg.(type) {
		case int32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(v))
		case int64:
			buf = binary.BigEndian.AppendUint64(buf, uint64(v))
		case float32:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v))
		case float64:
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
		case string:
			buf = appendPadded(buf, []byte(v))
		case []byte:
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
			buf = append(buf, v...)
			for i := 0; i < pad(len(v)); i++ {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// reader walks a message, keeping the cursor on four-byte boundaries.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int, what string) ([]byte, error) {
	if len(r.buf)-r.pos < n {
		return nil, fmt.Errorf("osc: truncated %s", what)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) str() string {
	end := r.pos
	for end < len(r.buf) && r.buf[end] != 0 {
		end++
	}
	s := string(r.buf[r.pos:end])
	r.pos = end + 1 + pad(end-r.pos+1)
	return s
}

// decoders maps each type tag to its argument decoder. T, F and N carry
// no payload; unknown tags are skipped.
var decoders = map[byte]func(r *reader) (any, error){
	'i': func(r *reader) (any, error) {
		b, err := r.take(4, "int32")
		if err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	},
	'h': func(r *reader) (any, error) {
		b, err := r.take(8, "int64")
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	},
	'f': func(r *reader) (any, error) {
		b, err := r.take(4, "float32")
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	},
	'd': func(r *reader) (any, error) {
		b, err := r.take(8, "float64")
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	},
	's': func(r *reader) (any, error) {
		return r.str(), nil
	},
	'b': func(r *reader) (any, error) {
		head, err := r.take(4, "blob size")
		if err != nil {
			return nil, err
		}
		size := int(binary.BigEndian.Uint32(head))
		body, err := r.take(size, "blob")
		if err != nil {
			return nil, err
		}
		r.pos += pad(size)
		out := make([]byte, size)
		copy(out, body)
		return out, nil
	},
	'T': func(*reader) (any, error) { return true, nil },
	'F': func(*reader) (any, error) { return false, nil },
	'N': func(*reader) (any, error) { return nil, nil },
}

// Decode parses an OSC message into its address and arguments. A
// message without a type tag string decodes to a bare address.
func Decode(data []byte) (string, []any, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("osc: message too short")
	}
	r := &reader{buf: data}
	addr := r.str()
	if r.pos >= len(r.buf) || r.buf[r.pos] != ',' {
		return addr, nil, nil
	}
	typetag := r.str()

	var args []any
	for i := 1; i < len(typetag); i++ {
		dec, ok := decoders[typetag[i]]
		if !ok {
			continue
		}
		v, err := dec(r)
		if err != nil {
			return addr, args, err
		}
		args = append(args, v)
	}
	return addr, args, nil
}

// number extracts a numeric OSC argument of any width.
func number(arg any) (float64, bool) {
	switch v := arg.(type) {
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
