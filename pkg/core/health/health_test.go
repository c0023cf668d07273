package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker("store", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "seed table reachable"}
	})

	if checker.Name() != "store" {
		t.Errorf("Name() = %v, want store", checker.Name())
	}
	result := checker.Check(context.Background())
	if result.Status != StatusHealthy || result.Message != "seed table reachable" {
		t.Errorf("Check() = %+v", result)
	}
}

func TestErrorCheck(t *testing.T) {
	ok := ErrorCheck("ok", func(context.Context) error { return nil })
	if r := ok.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", r.Status)
	}

	bad := ErrorCheck("bad", func(context.Context) error { return errors.New("database is locked") })
	r := bad.Check(context.Background())
	if r.Status != StatusUnhealthy || r.Message != "database is locked" {
		t.Errorf("Check() = %+v", r)
	}
}

func TestRegistry_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unknown degrades", []Status{StatusHealthy, ""}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("laplaced", "1.0.0")
			for i, s := range tt.statuses {
				s := s
				registry.RegisterFunc(string(rune('a'+i)), func(ctx context.Context) CheckResult {
					return CheckResult{Status: s}
				})
			}
			report := registry.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if report.Healthy() != (tt.want == StatusHealthy) {
				t.Errorf("Healthy() = %v", report.Healthy())
			}
		})
	}
}

func TestRegistry_ReportIsSortedAndNamed(t *testing.T) {
	registry := NewRegistry("laplaced", "1.0.0")
	registry.Register(AlwaysHealthy("solver"))
	registry.RegisterFunc("cache", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	registry.Register(AlwaysHealthy("store"))
	registry.Unregister("store")

	report := registry.Check(context.Background())
	if len(report.Checks) != 2 {
		t.Fatalf("Checks = %+v", report.Checks)
	}
	if report.Checks[0].Name != "cache" || report.Checks[1].Name != "solver" {
		t.Errorf("check order = %v, %v", report.Checks[0].Name, report.Checks[1].Name)
	}
	if report.Service != "laplaced" || report.Version != "1.0.0" {
		t.Errorf("report = %+v", report)
	}
}

func TestRegistry_ConcurrentChecks(t *testing.T) {
	registry := NewRegistry("laplaced", "1.0.0")

	var counter int32
	for i := 0; i < 5; i++ {
		registry.RegisterFunc("check"+string(rune('A'+i)), func(ctx context.Context) CheckResult {
			atomic.AddInt32(&counter, 1)
			time.Sleep(20 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		})
	}

	start := time.Now()
	report := registry.CheckWithTimeout(5 * time.Second)
	duration := time.Since(start)

	if atomic.LoadInt32(&counter) != 5 {
		t.Errorf("Counter = %v, want 5", counter)
	}
	if duration > 90*time.Millisecond {
		t.Errorf("Duration = %v, expected concurrent execution", duration)
	}
	for _, c := range report.Checks {
		if c.Duration < 20*time.Millisecond || c.Timestamp.IsZero() {
			t.Errorf("check %s has duration %v, timestamp %v", c.Name, c.Duration, c.Timestamp)
		}
	}
}

func TestTCPCheck(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()

	up := TCPCheck("grpc", addr, time.Second).Check(context.Background())
	if up.Status != StatusHealthy || up.Details["address"] != addr {
		t.Errorf("open port: %+v", up)
	}

	lis.Close()
	down := TCPCheck("grpc", addr, time.Second).Check(context.Background())
	if down.Status != StatusUnhealthy {
		t.Errorf("closed port: %+v", down)
	}
}

func TestReport_String(t *testing.T) {
	report := &Report{
		Service: "laplaced",
		Status:  StatusHealthy,
		Uptime:  time.Hour,
		Checks:  []CheckResult{{}, {}},
	}
	want := "Service: laplaced, Status: healthy, Uptime: 1h0m0s, Checks: 2"
	if got := report.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
