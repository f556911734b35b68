package resp

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies a Frame variant.
type Kind int

const (
	// KindSimple is a simple string: "+OK\r\n".
	KindSimple Kind = iota
	// KindError is an error string: "-ERR unknown command 'foobar'\r\n".
	KindError
	// KindInteger is an unsigned decimal integer: ":1000\r\n".
	KindInteger
	// KindBulk is a length-prefixed byte string: "$6\r\nfoobar\r\n".
	KindBulk
	// KindNull is the null bulk string: "$-1\r\n".
	KindNull
	// KindArray is a count-prefixed sequence of frames:
	// "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n".
	KindArray
)

// String returns the variant name for error messages.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Frame is one RESP wire value. It is a tagged union: Kind selects which of
// the payload fields is meaningful. Frames are transient, built per message
// and discarded once written.
type Frame struct {
	Kind  Kind
	Str   string  // Simple, Error
	Int   uint64  // Integer
	Bulk  []byte  // Bulk
	Array []Frame // Array
}

// NewSimple returns a simple string frame.
func NewSimple(s string) Frame { return Frame{Kind: KindSimple, Str: s} }

// NewError returns an error frame.
func NewError(s string) Frame { return Frame{Kind: KindError, Str: s} }

// NewInteger returns an integer frame.
func NewInteger(n uint64) Frame { return Frame{Kind: KindInteger, Int: n} }

// NewBulk returns a bulk string frame. The slice is used as-is, not copied.
func NewBulk(b []byte) Frame { return Frame{Kind: KindBulk, Bulk: b} }

// NewBulkString returns a bulk string frame from a string.
func NewBulkString(s string) Frame { return Frame{Kind: KindBulk, Bulk: []byte(s)} }

// Null returns the null frame.
func Null() Frame { return Frame{Kind: KindNull} }

// NewArray returns an array frame over the given elements.
func NewArray(elems ...Frame) Frame { return Frame{Kind: KindArray, Array: elems} }

// Append serializes the frame onto dst and returns the extended slice.
// Serialization is the exact inverse of Parse for every variant, arrays
// included.
func (f Frame) Append(dst []byte) []byte {
	switch f.Kind {
	case KindSimple:
		dst = append(dst, '+')
		dst = append(dst, f.Str...)
	case KindError:
		dst = append(dst, '-')
		dst = append(dst, f.Str...)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, f.Int, 10)
	case KindBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.Bulk...)
	case KindNull:
		return append(dst, "$-1\r\n"...)
	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(f.Array)), 10)
		dst = append(dst, '\r', '\n')
		for _, el := range f.Array {
			dst = el.Append(dst)
		}
		return dst
	}
	return append(dst, '\r', '\n')
}

// Bytes returns the serialized frame.
func (f Frame) Bytes() []byte { return f.Append(nil) }

// Equal reports deep equality, treating nil and empty bulk/array the same.
func (f Frame) Equal(o Frame) bool {
	if f.Kind != o.Kind {
		return false
	}
	switch f.Kind {
	case KindSimple, KindError:
		return f.Str == o.Str
	case KindInteger:
		return f.Int == o.Int
	case KindBulk:
		return bytes.Equal(f.Bulk, o.Bulk)
	case KindNull:
		return true
	case KindArray:
		if len(f.Array) != len(o.Array) {
			return false
		}
		for i := range f.Array {
			if !f.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a compact human-readable form for logs and test failures.
func (f Frame) String() string {
	switch f.Kind {
	case KindSimple:
		return fmt.Sprintf("simple(%q)", f.Str)
	case KindError:
		return fmt.Sprintf("error(%q)", f.Str)
	case KindInteger:
		return fmt.Sprintf("integer(%d)", f.Int)
	case KindBulk:
		return fmt.Sprintf("bulk(%q)", f.Bulk)
	case KindNull:
		return "null"
	case KindArray:
		var b bytes.Buffer
		b.WriteString("array[")
		for i, el := range f.Array {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(el.String())
		}
		b.WriteString("]")
		return b.String()
	}
	return "unknown"
}
