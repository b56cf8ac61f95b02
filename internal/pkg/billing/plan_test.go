package billing

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "basic", want: "basic"},
		{in: "intermediary", want: "intermediary"},
		{in: "complete", want: "complete"},
		{in: "COMPLETE", want: "complete"},
		{in: "invalid", want: "none"},
		{in: "", want: "none"},
	}

	for _, tt := range tests {
		if got := normalizePlan(tt.in); got != tt.want {
			t.Fatalf("normalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if planRank("none") >= planRank("basic") {
		t.Fatalf("expected basic to outrank none")
	}
	if planRank("basic") >= planRank("intermediary") {
		t.Fatalf("expected intermediary to outrank basic")
	}
	if planRank("intermediary") >= planRank("complete") {
		t.Fatalf("expected complete to outrank intermediary")
	}
}

func TestIsDowngrade(t *testing.T) {
	if !isDowngrade("complete", "basic") {
		t.Fatalf("complete -> basic should be a downgrade")
	}
	if isDowngrade("basic", "complete") {
		t.Fatalf("basic -> complete should not be a downgrade")
	}
	if isDowngrade("basic", "basic") {
		t.Fatalf("same plan should not be a downgrade")
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	if !isEntitlingStatus("active") {
		t.Fatalf("expected status active to be entitling")
	}
	for _, status := range []string{"canceled", "expired", ""} {
		if isEntitlingStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}
