package risk

import "testing"

func TestNormalizeTriggers(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single", "Temperature", "Temperature"},
		{"dedupe and sort", "Wind, Temperature, Wind, Temperature", "Temperature, Wind"},
		{"title case and trim", "  wind ,temperature , HUMIDITY", "Humidity, Temperature, Wind"},
		{"unrecognized dropped", "Temperature, Banana, , Sandstorm", "Temperature"},
		{"all unrecognized", "Banana, Sandstorm", ""},
	}

	for _, tc := range cases {
		got := NormalizeTriggers(tc.in)
		if got != tc.want {
			t.Fatalf("%s: NormalizeTriggers(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
		if again := NormalizeTriggers(got); again != got {
			t.Fatalf("%s: normalization not idempotent: %q -> %q", tc.name, got, again)
		}
	}
}

func TestScoreTriggersMonotonic(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Temperature", 1},
		{"Temperature, Wind", 2},
		{"Temperature, Wind, Humidity", 3},
		{"humidity, HUMIDITY, Humidity", 1},
		{"Banana", 0},
	}

	for _, tc := range cases {
		if got := ScoreTriggers(tc.in); got != tc.want {
			t.Fatalf("ScoreTriggers(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
