package probe

import (
	"context"
	"errors"
	"testing"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name:     "healthy",
			Check:    func(ctx context.Context) error { return nil },
			Critical: true,
		},
		{
			Name:     "degraded",
			Check:    func(ctx context.Context) error { return errors.New("minor issue") },
			Critical: false,
		},
	}

	results := Run(context.Background(), probes)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("healthy probe failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("degraded probe should have failed")
	}
}

func TestAnalyze(t *testing.T) {
	fail := errors.New("fail")
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{"all pass", []Result{{Name: "db", Critical: true}}, false},
		{"critical failure", []Result{{Name: "db", Critical: true, Err: fail}}, true},
		{"non-critical failure", []Result{{Name: "zones", Err: fail}}, false},
		{"mixed", []Result{{Name: "zones", Err: fail}, {Name: "db", Critical: true, Err: fail}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Analyze(tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("Analyze() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
