package logger

import "testing"

func TestRatioSamplerWindow(t *testing.T) {
	s := newRatioSampler(2, 5)
	var allowed int
	for i := 0; i < 10; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 4 {
		t.Fatalf("allowed = %d over two windows, want 4", allowed)
	}
}

func TestShouldSampleDebugTraceOverride(t *testing.T) {
	old := traceOverride
	defer func() { traceOverride = old }()

	debugSampler.Set(0, 1)
	traceOverride = false
	if ShouldSampleDebug() {
		t.Fatal("ShouldSampleDebug() = true with sampling disabled")
	}
	if TraceEnabled() {
		t.Fatal("TraceEnabled() = true without override")
	}

	traceOverride = true
	if !ShouldSampleDebug() {
		t.Fatal("ShouldSampleDebug() = false under TRACE override")
	}
	if !TraceEnabled() {
		t.Fatal("TraceEnabled() = false under TRACE override")
	}
	debugSampler.Set(1, 50)
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec string
		num  int
		den  int
	}{
		{"1/10", 1, 10},
		{"1", 1, 1},
		{"0", 0, 0},
		{"", -1, -1},
		{"x/2", -1, -1},
		{"1/0", -1, -1},
	}
	for _, tc := range cases {
		num, den := parseRatioSpec(tc.spec)
		if num != tc.num || den != tc.den {
			t.Fatalf("parseRatioSpec(%q) = (%d, %d), want (%d, %d)", tc.spec, num, den, tc.num, tc.den)
		}
	}
}
