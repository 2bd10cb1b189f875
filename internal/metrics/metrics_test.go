package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Second call is a no-op.
	if err := Register(reg); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	IncOperation("start", true)
	IncOperation("stop", false)
	SetManagedUp("blackbird", true)
	SetLockHeld("blackbird", false)
	RecordStateTransition("blackbird", "unknown", "started")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]*dto.MetricFamily{}
	for _, mf := range mfs {
		found[mf.GetName()] = mf
	}
	if _, ok := found["procshim_supervisor_operations_total"]; !ok {
		t.Fatalf("operations counter not gathered: %v", found)
	}
	up, ok := found["procshim_supervisor_managed_up"]
	if !ok {
		t.Fatalf("managed_up gauge not gathered")
	}
	if v := up.GetMetric()[0].GetGauge().GetValue(); v != 1 {
		t.Fatalf("managed_up = %v, want 1", v)
	}
}
