package nativedeps

import (
	"strings"
	"testing"
)

func TestCheckToolAvailable(t *testing.T) {
	if err := CheckToolAvailable("sh"); err != nil {
		t.Errorf("CheckToolAvailable(sh) = %v", err)
	}
	if err := CheckToolAvailable("no-such-tool-on-any-host"); err == nil {
		t.Error("CheckToolAvailable(missing): expected error")
	}
}

func TestCheckRequiredTools(t *testing.T) {
	tests := []struct {
		name    string
		reqs    []ToolRequirement
		wantErr bool
	}{
		{
			name:    "present tool",
			reqs:    []ToolRequirement{{Name: "sh", Purpose: "shell"}},
			wantErr: false,
		},
		{
			name: "alternative satisfies",
			reqs: []ToolRequirement{
				{Name: "no-such-tool", Alternatives: []string{"sh"}, Purpose: "shell"},
			},
			wantErr: false,
		},
		{
			name:    "optional tool missing",
			reqs:    []ToolRequirement{{Name: "no-such-tool", Optional: true}},
			wantErr: false,
		},
		{
			name:    "required tool missing",
			reqs:    []ToolRequirement{{Name: "no-such-tool", Purpose: "testing"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		err := CheckRequiredTools(tt.reqs)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: CheckRequiredTools() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCheckRequiredToolsReportsAllMissing(t *testing.T) {
	err := CheckRequiredTools([]ToolRequirement{
		{Name: "no-such-tool-a", Purpose: "first"},
		{Name: "no-such-tool-b", Purpose: "second"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "no-such-tool-a") || !strings.Contains(msg, "no-such-tool-b") {
		t.Errorf("error %q should name every missing tool", msg)
	}
}
