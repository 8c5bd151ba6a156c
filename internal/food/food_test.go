package food

import (
	"math"
	"testing"
	"testing/quick"
)

func TestGetTotalProperty(t *testing.T) {
	f := func(a, b float64) bool {
		if math.IsNaN(a) || math.IsNaN(b) {
			return true
		}
		res := GetTotal(a, b)
		return math.IsNaN(res) || res == a+b
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestGetTotal(t *testing.T) {
	tests := []struct {
		name    string
		a, b    float64
		want    float64
		wantNaN bool
	}{
		{name: "integers", a: 1, b: 2, want: 3},
		{name: "negative", a: -1.5, b: 0.5, want: -1},
		{name: "zero", a: 0, b: 0, want: 0},
		{name: "infinity", a: math.Inf(1), b: 1, want: math.Inf(1)},
		{name: "opposite infinities", a: math.Inf(1), b: math.Inf(-1), wantNaN: true},
		{name: "nan left", a: math.NaN(), b: 1, wantNaN: true},
		{name: "nan right", a: 1, b: math.NaN(), wantNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetTotal(tt.a, tt.b)
			if tt.wantNaN {
				if !math.IsNaN(got) {
					t.Errorf("GetTotal(%v, %v) = %v, want NaN", tt.a, tt.b, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("GetTotal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCuisineHasBanner(t *testing.T) {
	empty := ""
	key := "banners/coconuts.txt"

	tests := []struct {
		name   string
		banner *string
		want   bool
	}{
		{"nil", nil, false},
		{"empty", &empty, false},
		{"set", &key, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Cuisine{Name: "foo", Banner: tt.banner}
			if got := c.HasBanner(); got != tt.want {
				t.Errorf("HasBanner() = %v, want %v", got, tt.want)
			}
		})
	}
}
