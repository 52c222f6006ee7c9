package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// propChunkLen is the bounded read size for one GetProperty request, in
// 32-bit transport units. Properties longer than this are fetched with
// repeated offset-advancing reads.
const propChunkLen = 65536

// PropertyValue is the full value of a window property: an ordered sequence
// of fixed-width elements tagged with a type atom and an element bit width.
// Data holds the raw wire bytes; Format is one of 8, 16 or 32.
type PropertyValue struct {
	Type   xproto.Atom
	Format byte
	Data   []byte
}

// Len returns the number of elements in the value.
func (v *PropertyValue) Len() int {
	return len(v.Data) / (int(v.Format) / 8)
}

// Cardinals decodes a 32-bit value into its elements.
func (v *PropertyValue) Cardinals() []uint32 {
	out := make([]uint32, 0, len(v.Data)/4)
	for i := 0; i+4 <= len(v.Data); i += 4 {
		out = append(out, xgb.Get32(v.Data[i:]))
	}
	return out
}

// Windows decodes a 32-bit value into window ids.
func (v *PropertyValue) Windows() []xproto.Window {
	cards := v.Cardinals()
	out := make([]xproto.Window, len(cards))
	for i, c := range cards {
		out[i] = xproto.Window(c)
	}
	return out
}

// Text returns an 8-bit value as a string.
func (v *PropertyValue) Text() string {
	return string(v.Data)
}

// CardinalValue builds a 32-bit property value from elements.
func CardinalValue(elems []uint32) PropertyValue {
	data := make([]byte, len(elems)*4)
	for i, e := range elems {
		xgb.Put32(data[i*4:], e)
	}
	return PropertyValue{Format: 32, Data: data}
}

// TextValue builds an 8-bit property value from a string.
func TextValue(s string) PropertyValue {
	return PropertyValue{Format: 8, Data: []byte(s)}
}

// propertyChunk is the result of one bounded read.
type propertyChunk struct {
	typ        xproto.Atom
	format     byte
	value      []byte
	bytesAfter uint32
}

// fetchChunk performs one bounded read at the given offset, both in 32-bit
// transport units. It is a function so the reassembly loop can be exercised
// in tests with a reduced chunk size and no display.
type fetchChunk func(offset, length uint32) (propertyChunk, error)

// collectProperty drives the multi-round-trip read loop: bounded reads of
// chunkLen units, offset advanced by chunkLen, chunks concatenated in order
// until the server reports no bytes remaining.
//
// A first chunk typed AtomNone means the property does not exist; that is a
// nil value, not an error. A failed chunk fails the whole read and discards
// everything accumulated so far.
func collectProperty(fetch fetchChunk, expected xproto.Atom, chunkLen uint32) (*PropertyValue, error) {
	var value *PropertyValue
	for offset := uint32(0); ; offset += chunkLen {
		chunk, err := fetch(offset, chunkLen)
		if err != nil {
			return nil, err
		}
		if value == nil {
			if chunk.typ == xproto.AtomNone {
				return nil, nil
			}
			if expected != xproto.GetPropertyTypeAny && chunk.typ != expected {
				return nil, fmt.Errorf("%w: have atom %d, want atom %d",
					ErrPropertyTypeMismatch, chunk.typ, expected)
			}
			switch chunk.format {
			case 8, 16, 32:
			default:
				return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedPropertyFormat, chunk.format)
			}
			value = &PropertyValue{Type: chunk.typ, Format: chunk.format}
		}
		value.Data = append(value.Data, chunk.value...)
		if chunk.bytesAfter == 0 {
			return value, nil
		}
	}
}

// GetProperty reads the full value of a property regardless of length. It
// returns (nil, nil) when the property is not set. typ constrains the
// property's type; pass xproto.GetPropertyTypeAny to accept anything.
func (c *Connection) GetProperty(win xproto.Window, prop, typ xproto.Atom) (*PropertyValue, error) {
	if err := c.alive(); err != nil {
		return nil, err
	}
	fetch := func(offset, length uint32) (propertyChunk, error) {
		// Request the actual type unconstrained so a mismatch is detected
		// here rather than reported as an empty reply by the server.
		reply, err := xproto.GetProperty(c.conn(), false, win, prop,
			xproto.GetPropertyTypeAny, offset, length).Reply()
		if err != nil {
			return propertyChunk{}, newProtocolError("get property", err)
		}
		return propertyChunk{
			typ:        reply.Type,
			format:     reply.Format,
			value:      reply.Value,
			bytesAfter: reply.BytesAfter,
		}, nil
	}
	return collectProperty(fetch, typ, propChunkLen)
}

// SetProperty writes a property as one replace-mode request carrying the full
// value, tagged with the value's element bit width and the given storage
// type atom.
func (c *Connection) SetProperty(win xproto.Window, prop, typ xproto.Atom, value PropertyValue) error {
	if err := c.alive(); err != nil {
		return err
	}
	width := int(value.Format) / 8
	if width == 0 || len(value.Data)%width != 0 {
		return fmt.Errorf("%w: %d bits for %d bytes", ErrUnsupportedPropertyFormat,
			value.Format, len(value.Data))
	}
	nelems := uint32(len(value.Data) / width)
	return c.changeProperty(win, prop, typ, value.Format, nelems, value.Data)
}

// DeleteProperty removes a property. Deleting a property that is not set is
// a no-op, not an error.
func (c *Connection) DeleteProperty(win xproto.Window, prop xproto.Atom) error {
	if err := c.alive(); err != nil {
		return err
	}
	return c.deleteProperty(win, prop)
}
