package x11

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

// fakeProperty serves a stored property through the bounded-read protocol:
// offsets and lengths in 32-bit units, remaining length reported in bytes.
func fakeProperty(typ xproto.Atom, format byte, data []byte, calls *int) fetchChunk {
	return func(offset, length uint32) (propertyChunk, error) {
		if calls != nil {
			*calls++
		}
		start := int(offset) * 4
		if start > len(data) {
			start = len(data)
		}
		end := start + int(length)*4
		if end > len(data) {
			end = len(data)
		}
		return propertyChunk{
			typ:        typ,
			format:     format,
			value:      data[start:end],
			bytesAfter: uint32(len(data) - end),
		}, nil
	}
}

func TestCollectPropertyAbsent(t *testing.T) {
	fetch := fakeProperty(xproto.AtomNone, 0, nil, nil)
	value, err := collectProperty(fetch, xproto.AtomCardinal, propChunkLen)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if value != nil {
		t.Fatalf("absent property should yield a nil value, got %+v", value)
	}
}

func TestCollectPropertyEmptyButPresent(t *testing.T) {
	fetch := fakeProperty(xproto.AtomString, 8, nil, nil)
	value, err := collectProperty(fetch, xproto.AtomString, propChunkLen)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if value == nil {
		t.Fatal("present property with an empty value should not be nil")
	}
	if value.Len() != 0 {
		t.Fatalf("expected zero elements, got %d", value.Len())
	}
}

func TestCollectPropertyChunkedEquivalence(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	data := make([]byte, 4096)
	for i := range data {
		data[i] = uint8(rng.UintN(256))
	}

	whole, err := collectProperty(fakeProperty(xproto.AtomCardinal, 32, data, nil),
		xproto.AtomCardinal, propChunkLen)
	if err != nil {
		t.Fatalf("single read: %v", err)
	}

	for _, chunkLen := range []uint32{1, 7, 64, 1024} {
		calls := 0
		chunked, err := collectProperty(fakeProperty(xproto.AtomCardinal, 32, data, &calls),
			xproto.AtomCardinal, chunkLen)
		if err != nil {
			t.Fatalf("chunkLen %d: %v", chunkLen, err)
		}
		if !bytes.Equal(chunked.Data, whole.Data) {
			t.Fatalf("chunkLen %d: reassembled value differs from single read", chunkLen)
		}
		wantCalls := (len(data)/4 + int(chunkLen) - 1) / int(chunkLen)
		if calls != wantCalls {
			t.Fatalf("chunkLen %d: %d fetches, want %d", chunkLen, calls, wantCalls)
		}
	}
}

func TestCollectPropertyTypeMismatch(t *testing.T) {
	fetch := fakeProperty(xproto.AtomString, 8, []byte("term"), nil)
	_, err := collectProperty(fetch, xproto.AtomCardinal, propChunkLen)
	if !errors.Is(err, ErrPropertyTypeMismatch) {
		t.Fatalf("expected ErrPropertyTypeMismatch, got %v", err)
	}
}

func TestCollectPropertyAnyTypeAcceptsAll(t *testing.T) {
	fetch := fakeProperty(xproto.AtomString, 8, []byte("term"), nil)
	value, err := collectProperty(fetch, xproto.GetPropertyTypeAny, propChunkLen)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if value.Text() != "term" {
		t.Fatalf("value = %q, want %q", value.Text(), "term")
	}
}

func TestCollectPropertyUnsupportedFormat(t *testing.T) {
	for _, format := range []byte{0, 7, 64} {
		fetch := fakeProperty(xproto.AtomCardinal, format, make([]byte, 8), nil)
		_, err := collectProperty(fetch, xproto.AtomCardinal, propChunkLen)
		if !errors.Is(err, ErrUnsupportedPropertyFormat) {
			t.Fatalf("format %d: expected ErrUnsupportedPropertyFormat, got %v", format, err)
		}
	}
}

func TestCollectPropertyFetchFailureDiscardsAll(t *testing.T) {
	boom := fmt.Errorf("connection reset")
	inner := fakeProperty(xproto.AtomCardinal, 32, make([]byte, 64), nil)
	fetch := func(offset, length uint32) (propertyChunk, error) {
		if offset > 0 {
			return propertyChunk{}, boom
		}
		return inner(offset, length)
	}
	value, err := collectProperty(fetch, xproto.AtomCardinal, 4)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the fetch error, got %v", err)
	}
	if value != nil {
		t.Fatalf("failed read must not return partial data, got %d bytes", len(value.Data))
	}
}

func TestCardinalValueElements(t *testing.T) {
	elems := []uint32{0, 1, 0xdeadbeef, 1 << 31}
	value := CardinalValue(elems)
	if value.Format != 32 {
		t.Fatalf("format = %d, want 32", value.Format)
	}
	if value.Len() != len(elems) {
		t.Fatalf("len = %d, want %d", value.Len(), len(elems))
	}
	if !reflect.DeepEqual(value.Cardinals(), elems) {
		t.Fatalf("cardinals = %v, want %v", value.Cardinals(), elems)
	}
}

func TestTextValueRoundTrip(t *testing.T) {
	value := TextValue("instance\x00Class\x00")
	if value.Format != 8 {
		t.Fatalf("format = %d, want 8", value.Format)
	}
	if got := value.Text(); got != "instance\x00Class\x00" {
		t.Fatalf("text = %q", got)
	}
}
