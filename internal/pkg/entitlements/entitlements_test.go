package entitlements

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "basic", want: PlanBasic},
		{in: "intermediary", want: PlanIntermediary},
		{in: "complete", want: PlanComplete},
		{in: "COMPLETE", want: PlanComplete},
		{in: "  basic ", want: PlanBasic},
		{in: "", want: PlanNone},
		{in: "invalid", want: PlanNone},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsKnownPlan(t *testing.T) {
	for _, plan := range []string{"none", "basic", "intermediary", "complete", " Complete "} {
		if !IsKnownPlan(plan) {
			t.Fatalf("expected %q to be a known plan", plan)
		}
	}
	for _, plan := range []string{"", "premium", "free"} {
		if IsKnownPlan(plan) {
			t.Fatalf("expected %q to be unknown", plan)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	if Rank(PlanNone) >= Rank(PlanBasic) {
		t.Fatalf("expected basic to outrank none")
	}
	if Rank(PlanBasic) >= Rank(PlanIntermediary) {
		t.Fatalf("expected intermediary to outrank basic")
	}
	if Rank(PlanIntermediary) >= Rank(PlanComplete) {
		t.Fatalf("expected complete to outrank intermediary")
	}
}

func TestMaxProfiles(t *testing.T) {
	tests := []struct {
		plan Plan
		want int
	}{
		{plan: PlanNone, want: 1},
		{plan: PlanBasic, want: 2},
		{plan: PlanIntermediary, want: 3},
		{plan: PlanComplete, want: 4},
		{plan: Plan("garbage"), want: 1},
	}

	for _, tt := range tests {
		if got := MaxProfiles(tt.plan); got != tt.want {
			t.Fatalf("MaxProfiles(%q) = %d, want %d", tt.plan, got, tt.want)
		}
	}
}

func TestUltraHDOnlyOnComplete(t *testing.T) {
	for _, plan := range []Plan{PlanNone, PlanBasic, PlanIntermediary} {
		if CanUltraHD(plan) {
			t.Fatalf("expected plan %q to not unlock 4k", plan)
		}
	}
	if !CanUltraHD(PlanComplete) {
		t.Fatalf("expected complete to unlock 4k")
	}
}
