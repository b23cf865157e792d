// Package wire defines the messages exchanged between the game server and
// its clients. Every message is a single tag byte followed by a protobuf
// wire-format body.
package wire

import (
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorrupt marks a message that cannot be decoded. Receiving one is fatal
// to the connection it arrived on.
var ErrCorrupt = errors.New("corrupt message")

// Kind is the tag byte that precedes every message body.
type Kind byte

const (
	KindSessionStart Kind = 0x01
	KindCreation     Kind = 0x02
	KindUpdate       Kind = 0x03
	KindDeletion     Kind = 0x04
	KindHoleUpdate   Kind = 0x05
	KindPong         Kind = 0x06

	KindJoin  Kind = 0x10
	KindInput Kind = 0x11
	KindPing  Kind = 0x12
)

func (k Kind) String() string {
	switch k {
	case KindSessionStart:
		return "sessionStart"
	case KindCreation:
		return "creation"
	case KindUpdate:
		return "update"
	case KindDeletion:
		return "deletion"
	case KindHoleUpdate:
		return "holeUpdate"
	case KindPong:
		return "pong"
	case KindJoin:
		return "join"
	case KindInput:
		return "input"
	case KindPing:
		return "ping"
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// Message is implemented by every message type of this package.
type Message interface {
	Kind() Kind
	appendBody(b []byte) []byte
	decodeBody(fs []field) error
}

// Marshal encodes m with its tag byte.
func Marshal(m Message) []byte {
	b := []byte{byte(m.Kind())}
	return m.appendBody(b)
}

// Unmarshal decodes a tagged message. Any malformed input yields an error
// wrapping ErrCorrupt.
func Unmarshal(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty message")
	}
	var m Message
	switch Kind(b[0]) {
	case KindSessionStart:
		m = &SessionStart{}
	case KindCreation:
		m = &Creation{}
	case KindUpdate:
		m = &Update{}
	case KindDeletion:
		m = &Deletion{}
	case KindHoleUpdate:
		m = &HoleUpdate{}
	case KindPong:
		m = &Pong{}
	case KindJoin:
		m = &Join{}
	case KindInput:
		m = &Input{}
	case KindPing:
		m = &Ping{}
	default:
		return nil, errors.Wrapf(ErrCorrupt, "unknown message kind %s", Kind(b[0]))
	}
	fs, err := decodeFields(b[1:])
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", m.Kind())
	}
	if err := m.decodeBody(fs); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", m.Kind())
	}
	return m, nil
}

type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

func (f field) int() int64 {
	return protowire.DecodeZigZag(f.value)
}

func decodeFields(b []byte) ([]field, error) {
	var fs []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(ErrCorrupt, protowire.ParseError(n).Error())
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, errors.Wrap(ErrCorrupt, protowire.ParseError(n).Error())
		}
		b = b[n:]
		fs = append(fs, f)
	}
	return fs, nil
}

func expect(f field, typ protowire.Type) error {
	if f.typ != typ {
		return errors.Wrapf(ErrCorrupt, "field %d has wire type %d, want %d", f.num, f.typ, typ)
	}
	return nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	return appendUint(b, num, protowire.EncodeZigZag(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendPacked(b []byte, num protowire.Number, vs []int) []byte {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
	}
	return appendBytes(b, num, packed)
}

func decodePacked(b []byte) ([]int, error) {
	var vs []int
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, errors.Wrap(ErrCorrupt, protowire.ParseError(n).Error())
		}
		vs = append(vs, int(protowire.DecodeZigZag(v)))
		b = b[n:]
	}
	return vs, nil
}

// decodeID narrows a decoded integer to the 16-bit gob identifier range.
func decodeID(f field) (int16, error) {
	if err := expect(f, protowire.VarintType); err != nil {
		return 0, err
	}
	v := f.int()
	if v < -1<<15 || v >= 1<<15 {
		return 0, errors.Wrapf(ErrCorrupt, "gob id %d out of range", v)
	}
	return int16(v), nil
}
