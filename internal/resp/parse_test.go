package resp

import (
	"errors"
	"testing"
)

// ============================================================
// Parse - valid frames
// ============================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Frame
	}{
		{"simple string", "+OK\r\n", NewSimple("OK")},
		{"error", "-ERR unknown command 'foobar'\r\n", NewError("ERR unknown command 'foobar'")},
		{"integer", ":1000\r\n", NewInteger(1000)},
		{"bulk", "$6\r\nfoobar\r\n", NewBulkString("foobar")},
		{"bulk with CRLF payload", "$4\r\na\r\nb\r\n", NewBulk([]byte("a\r\nb"))},
		{"null", "$-1\r\n", Null()},
		{
			"array",
			"*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			NewArray(NewBulkString("foo"), NewBulkString("bar")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("consumed %d bytes, want %d", n, len(tt.input))
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse = %v, want %v", got, tt.want)
			}
		})
	}
}

// Bulk payloads must be copies, not views into the input buffer.
func TestParse_CopiesPayload(t *testing.T) {
	input := []byte("$3\r\nfoo\r\n")
	f, _, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	input[4] = 'X'
	if string(f.Bulk) != "foo" {
		t.Errorf("payload aliased the input buffer: %q", f.Bulk)
	}
}

// ============================================================
// Parse - malformed frames
// ============================================================

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"invalid utf-8 simple string", "+\xff\xfe\r\n", ErrProtocol},
		{"invalid utf-8 error string", "-\xff\xfe\r\n", ErrProtocol},
		{"bad bulk terminator", "$3\r\nfooXY", ErrProtocol},
		{"negative bulk length other than -1", "$-7\r\n", ErrProtocol},
		{"unknown type byte", "?\r\n", ErrProtocol},
		// Parse runs after Check has confirmed sufficiency; truncation at
		// this stage is a format error, not a retry signal.
		{"truncated bulk", "$6\r\nfoo", ErrProtocol},
		{"truncated array", "*2\r\n$3\r\nfoo\r\n", ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse err = %v, want %v", err, tt.want)
			}
			if errors.Is(err, ErrIncomplete) {
				t.Error("Parse must never surface ErrIncomplete")
			}
		})
	}
}
