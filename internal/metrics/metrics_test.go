package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	// promauto registers with the default registry at init; writing a
	// value and reading it back proves registration worked.

	PacketsReceived.WithLabelValues("DHCPDISCOVER").Inc()
	PacketsSent.WithLabelValues("DHCPOFFER").Inc()
	PacketsDropped.WithLabelValues("mac_mismatch").Inc()
	SendErrors.Inc()
	PacketProcessingDuration.WithLabelValues("DHCPDISCOVER").Observe(0.001)
	EventBufferDrops.Inc()
	ServerStartTime.SetToCurrentTime()
	ServerInfo.WithLabelValues("dev").Set(1)

	if got := testutil.ToFloat64(PacketsDropped.WithLabelValues("mac_mismatch")); got != 1 {
		t.Errorf("PacketsDropped{mac_mismatch} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SendErrors); got != 1 {
		t.Errorf("SendErrors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventBufferDrops); got != 1 {
		t.Errorf("EventBufferDrops = %v, want 1", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, mf := range mfs {
		name := mf.GetName()
		// Skip standard go_* and process_* and promhttp_* metrics
		if strings.HasPrefix(name, "go_") ||
			strings.HasPrefix(name, "process_") ||
			strings.HasPrefix(name, "promhttp_") {
			continue
		}
		if !strings.HasPrefix(name, "solodhcpd_") {
			t.Errorf("metric %q does not have solodhcpd_ prefix", name)
		}
	}
}
