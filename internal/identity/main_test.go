package identity

import (
	"os"
	"testing"

	"github.com/mdyrsy/kalbar-cm/pkg/config"
	"github.com/mdyrsy/kalbar-cm/prometheus"
)

func TestMain(m *testing.M) {
	// Metrics are package-level collectors; they must exist before any
	// code path that increments them runs.
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "identity_test"},
	})
	os.Exit(m.Run())
}
