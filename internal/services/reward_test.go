package services

import "testing"

func TestRateRewardPolicy(t *testing.T) {
	policy := RateRewardPolicy{Rate: 10, TenDrawBonus: 50}

	tests := []struct {
		name   string
		amount int64
		count  int
		want   int64
	}{
		{name: "single draw", amount: 300, count: 1, want: 30},
		{name: "ten draw gets bonus", amount: 3000, count: 10, want: 350},
		{name: "eleven draws still one bonus", amount: 3300, count: 11, want: 380},
		{name: "nine draws no bonus", amount: 2700, count: 9, want: 270},
		{name: "zero amount", amount: 0, count: 10, want: 0},
		{name: "negative amount", amount: -100, count: 1, want: 0},
		{name: "rounds down", amount: 99, count: 1, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.MedalsEarned(tt.amount, tt.count)
			if got != tt.want {
				t.Errorf("MedalsEarned(%d, %d) = %d, want %d", tt.amount, tt.count, got, tt.want)
			}
		})
	}
}
