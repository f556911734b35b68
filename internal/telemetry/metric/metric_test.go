package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
	m.ConnectionsActive.Dec()
	m.CommandsTotal.WithLabelValues("get").Inc()
	m.CommandsTotal.WithLabelValues("get").Inc()
	m.CommandsTotal.WithLabelValues("set").Inc()
	m.ProtocolErrorsTotal.Inc()

	if got := testutil.ToFloat64(m.ConnectionsTotal); got != 1 {
		t.Errorf("connections_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConnectionsActive); got != 0 {
		t.Errorf("connections_active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("get")); got != 2 {
		t.Errorf("commands_total{command=get} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProtocolErrorsTotal); got != 1 {
		t.Errorf("protocol_errors_total = %v, want 1", got)
	}
}

type fakeStats struct {
	keys    int
	expired uint64
}

func (s fakeStats) Len() int             { return s.keys }
func (s fakeStats) ExpiredTotal() uint64 { return s.expired }

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(fakeStats{keys: 7, expired: 3})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	got := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			if g := m.GetGauge(); g != nil {
				got[fam.GetName()] = g.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				got[fam.GetName()] = c.GetValue()
			}
		}
	}

	if got["cachelet_keys"] != 7 {
		t.Errorf("cachelet_keys = %v, want 7", got["cachelet_keys"])
	}
	if got["cachelet_keys_expired_total"] != 3 {
		t.Errorf("cachelet_keys_expired_total = %v, want 3", got["cachelet_keys_expired_total"])
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)
	m.ConnectionsTotal.Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body := new(strings.Builder)
	if _, err := io.Copy(body, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(body.String(), "cachelet_connections_total 1") {
		t.Errorf("metrics body missing cachelet_connections_total:\n%s", body.String())
	}
}
