package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	TicksTotal.WithLabelValues("AMETHYSTS").Inc()
	EMA.WithLabelValues("AMETHYSTS", "fast").Set(10000.5)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{"ticks_total": false, "ema_value": false}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}
}

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(OrdersTotal.WithLabelValues("STARFRUIT", "SELL"))
	OrdersTotal.WithLabelValues("STARFRUIT", "SELL").Inc()
	OrdersTotal.WithLabelValues("STARFRUIT", "SELL").Inc()
	if got := testutil.ToFloat64(OrdersTotal.WithLabelValues("STARFRUIT", "SELL")); got != before+2 {
		t.Fatalf("expected %v, got %v", before+2, got)
	}
}
