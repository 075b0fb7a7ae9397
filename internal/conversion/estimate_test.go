package conversion

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		name       string
		size       int64
		ms         int64
		complexity string
		human      string
	}{
		{"small", 100 * 1024, 5500, "low", "5.5s"},
		{"medium", 1024 * 1024, 51700, "medium", "51.7s"},
		{"large with many pages", 6 * 1024 * 1024, 553860, "high", "9.2min"},
		{"tiny", 0, 500, "low", "500ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := Estimate(tt.size)
			if est.Milliseconds != tt.ms || est.Complexity != tt.complexity || est.Human != tt.human {
				t.Fatalf("unexpected estimate: %+v", est)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512.00 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.size); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
