package leads

import "testing"

func TestScoreSteps(t *testing.T) {
	tests := []struct {
		name  string
		slots Slots
		want  int
	}{
		{"empty", Slots{}, 0},
		{"one slot", Slots{EventType: "Boda"}, 20},
		{"two slots", Slots{EventType: "Boda", EventDate: "15 de junio"}, 40},
		{"three slots", Slots{Name: "Ana", EventType: "Boda", Budget: "s/ 20000"}, 60},
		{"four slots", Slots{Name: "Ana", Email: "ana@mail.com", EventType: "Boda", Budget: "s/ 20000"}, 80},
		{"all slots", Slots{Name: "Ana", Email: "ana@mail.com", EventType: "Boda", EventDate: "15 de junio", Budget: "s/ 20000"}, 100},
		{"whitespace is unfilled", Slots{Name: "   "}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.slots); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	full := Slots{Name: "a", Email: "b", EventType: "c", EventDate: "d", Budget: "e"}
	if got := Score(full); got != 100 {
		t.Errorf("max score = %d, want 100", got)
	}
	if got := Score(Slots{}); got != 0 {
		t.Errorf("min score = %d, want 0", got)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{100, TierGood},
		{80, TierGood},
		{60, TierMedium},
		{79, TierMedium},
		{59, TierLow},
		{40, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
