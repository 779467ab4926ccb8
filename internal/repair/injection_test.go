package repair

import "testing"

func TestIsRisky(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"=SUM(A1:A2)", true},
		{"+1+1", true},
		{"-2+3", true},
		{"@SUM(A1)", true},
		{"normal text", false},
		{"", false},
		{"   ", false},
		{" =cmd|' /C calc'!A0", true},
		{"\t@A1", true},
		{"a=b", false},
		{"1-2", false},
		{"'=escaped", false},
	}

	for _, tt := range tests {
		if got := IsRisky(tt.field); got != tt.want {
			t.Errorf("IsRisky(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestInjectionGuard_Strict(t *testing.T) {
	g := InjectionGuard{SkipLeadingSpace: false}

	if !g.IsRisky("=1+1") {
		t.Error("expected =1+1 to be risky")
	}
	if g.IsRisky(" =1+1") {
		t.Error("leading space should not be skipped when SkipLeadingSpace is false")
	}
}
