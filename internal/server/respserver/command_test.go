package respserver

import (
	"errors"
	"testing"
	"time"

	"github.com/tvarn/cachelet-go/internal/resp"
	"github.com/tvarn/cachelet-go/internal/storage/memory"
)

// ============================================================
// Helpers
// ============================================================

func request(words ...string) resp.Frame {
	frames := make([]resp.Frame, len(words))
	for i, w := range words {
		frames[i] = resp.NewBulkString(w)
	}
	return resp.NewArray(frames...)
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ============================================================
// ParseCommand
// ============================================================

func TestParseCommandPing(t *testing.T) {
	cmd, err := ParseCommand(request("PING"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, ok := cmd.(*Ping); !ok {
		t.Fatalf("got %T, want *Ping", cmd)
	}
}

func TestParseCommandCaseInsensitive(t *testing.T) {
	for _, name := range []string{"get", "GET", "Get", "gEt"} {
		t.Run(name, func(t *testing.T) {
			cmd, err := ParseCommand(request(name, "k"))
			if err != nil {
				t.Fatalf("ParseCommand(%q): %v", name, err)
			}
			g, ok := cmd.(*Get)
			if !ok {
				t.Fatalf("got %T, want *Get", cmd)
			}
			if g.Key != "k" {
				t.Errorf("key = %q, want %q", g.Key, "k")
			}
		})
	}
}

func TestParseCommandSet(t *testing.T) {
	tests := []struct {
		name       string
		frame      resp.Frame
		wantExpire time.Duration
	}{
		{"no expiry", request("SET", "k", "v"), 0},
		{"ex seconds", request("SET", "k", "v", "EX", "10"), 10 * time.Second},
		{"px millis", request("SET", "k", "v", "PX", "250"), 250 * time.Millisecond},
		{"lowercase ex", request("SET", "k", "v", "ex", "3"), 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.frame)
			if err != nil {
				t.Fatalf("ParseCommand: %v", err)
			}
			set, ok := cmd.(*Set)
			if !ok {
				t.Fatalf("got %T, want *Set", cmd)
			}
			if set.Key != "k" || string(set.Value) != "v" {
				t.Errorf("decoded %q=%q, want k=v", set.Key, set.Value)
			}
			if set.Expire != tt.wantExpire {
				t.Errorf("expire = %v, want %v", set.Expire, tt.wantExpire)
			}
		})
	}
}

func TestParseCommandArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		frame   resp.Frame
		wantMsg string
	}{
		{"get missing key", request("GET"), "wrong number of arguments for 'get' command"},
		{"get extra arg", request("GET", "k", "extra"), "wrong number of arguments for 'get' command"},
		{"set missing value", request("SET", "k"), "wrong number of arguments for 'set' command"},
		{"set bad keyword", request("SET", "k", "v", "FOO", "10"), "syntax error"},
		{"set missing duration", request("SET", "k", "v", "EX"), "syntax error"},
		{"set non-numeric duration", request("SET", "k", "v", "EX", "soon"), "syntax error"},
		{"set zero duration", request("SET", "k", "v", "EX", "0"), "invalid expire time in 'set' command"},
		{"set negative duration", request("SET", "k", "v", "PX", "-5"), "invalid expire time in 'set' command"},
		{"set trailing arg", request("SET", "k", "v", "EX", "10", "junk"), "wrong number of arguments for 'set' command"},
		{"del missing key", request("DEL"), "wrong number of arguments for 'del' command"},
		{"ping extra arg", request("PING", "x"), "wrong number of arguments for 'ping' command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.frame)
			var ce *CommandError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CommandError", err)
			}
			if ce.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ce.Message, tt.wantMsg)
			}
		})
	}
}

func TestParseCommandBadRequest(t *testing.T) {
	tests := []struct {
		name  string
		frame resp.Frame
	}{
		{"not an array", resp.NewSimple("PING")},
		{"empty array", resp.NewArray()},
		{"non-string name", resp.NewArray(resp.NewInteger(42))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.frame)
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("error = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestParseCommandUnknown(t *testing.T) {
	cmd, err := ParseCommand(request("FLUSHALL", "now"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	u, ok := cmd.(*Unknown)
	if !ok {
		t.Fatalf("got %T, want *Unknown", cmd)
	}
	if u.Cmd != "flushall" {
		t.Errorf("name = %q, want %q", u.Cmd, "flushall")
	}
}

// ============================================================
// Apply
// ============================================================

func TestPingApply(t *testing.T) {
	store := newTestStore(t)
	reply := (&Ping{}).Apply(store)
	if !reply.Equal(resp.NewSimple("PONG")) {
		t.Errorf("reply = %v, want +PONG", reply)
	}
}

func TestSetGetApply(t *testing.T) {
	store := newTestStore(t)

	reply := (&Set{Key: "greeting", Value: []byte("hello")}).Apply(store)
	if !reply.Equal(resp.NewSimple("OK")) {
		t.Fatalf("set reply = %v, want +OK", reply)
	}

	reply = (&Get{Key: "greeting"}).Apply(store)
	if !reply.Equal(resp.NewBulk([]byte("hello"))) {
		t.Errorf("get reply = %v, want $hello", reply)
	}
}

func TestGetApplyMissingKey(t *testing.T) {
	store := newTestStore(t)
	reply := (&Get{Key: "absent"}).Apply(store)
	if reply.Kind != resp.KindNull {
		t.Errorf("reply kind = %v, want Null", reply.Kind)
	}
}

func TestDelApply(t *testing.T) {
	store := newTestStore(t)
	store.Set("k", []byte("v"), 0)

	reply := (&Del{Key: "k"}).Apply(store)
	if !reply.Equal(resp.NewInteger(1)) {
		t.Errorf("first del reply = %v, want :1", reply)
	}

	reply = (&Del{Key: "k"}).Apply(store)
	if !reply.Equal(resp.NewInteger(0)) {
		t.Errorf("second del reply = %v, want :0", reply)
	}
}

func TestSetApplyWithExpiry(t *testing.T) {
	store := newTestStore(t)

	(&Set{Key: "k", Value: []byte("v"), Expire: 60 * time.Millisecond}).Apply(store)
	if reply := (&Get{Key: "k"}).Apply(store); reply.Kind != resp.KindBulk {
		t.Fatalf("get before expiry = %v, want bulk", reply)
	}

	time.Sleep(120 * time.Millisecond)
	if reply := (&Get{Key: "k"}).Apply(store); reply.Kind != resp.KindNull {
		t.Errorf("get after expiry = %v, want Null", reply)
	}
}

func TestUnknownApply(t *testing.T) {
	store := newTestStore(t)
	reply := (&Unknown{Cmd: "flushall"}).Apply(store)
	if reply.Kind != resp.KindError {
		t.Fatalf("reply kind = %v, want Error", reply.Kind)
	}
	if reply.Str != "ERR unknown command 'flushall'" {
		t.Errorf("message = %q", reply.Str)
	}
}
