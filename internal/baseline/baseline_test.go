package baseline

import (
	"testing"
	"time"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		raw     string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyHistory, false},
		{"history", StrategyHistory, false},
		{"READ_BEFORE_WRITE", StrategyReadBeforeWrite, false},
		{"latest", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNowIsEastern(t *testing.T) {
	now := Now()
	if now.Location().String() != "America/New_York" {
		t.Errorf("Now() location = %s", now.Location())
	}
	if d := time.Since(now); d < 0 || d > time.Minute {
		t.Errorf("Now() drifted by %v", d)
	}
}

func TestKeyString(t *testing.T) {
	k := Key{EventID: "e1", MarketKey: "player_pass_yds", Outcome: "Over", Player: "Josh Allen"}
	if got := k.String(); got != "e1|player_pass_yds|Over|Josh Allen" {
		t.Errorf("String() = %q", got)
	}
}
