package squares

import "testing"

func TestWinType_Tag(t *testing.T) {
	tests := []struct {
		name string
		mode ScoringMode
		wt   WinType
		want string
	}{
		{"quarter q1", ModeQuarter, WinType{CheckpointQ1, DirectionForward}, "q1"},
		{"quarter halftime reverse", ModeQuarter, WinType{CheckpointHalftime, DirectionReverse}, "halftime_reverse"},
		{"quarter final", ModeQuarter, WinType{CheckpointFinal, DirectionForward}, "final"},
		{"score change", ModeScoreChange, WinType{CheckpointNone, DirectionForward}, "score_change"},
		{"score change reverse", ModeScoreChange, WinType{CheckpointNone, DirectionReverse}, "score_change_reverse"},
		{"score change final", ModeScoreChange, WinType{CheckpointFinal, DirectionForward}, "score_change_final"},
		{"score change final reverse", ModeScoreChange, WinType{CheckpointFinal, DirectionReverse}, "score_change_final_reverse"},
		{"hybrid plain entry", ModeHybrid, WinType{CheckpointNone, DirectionForward}, "score_change"},
		{"hybrid q1", ModeHybrid, WinType{CheckpointQ1, DirectionForward}, "hybrid_q1"},
		{"hybrid q3 reverse", ModeHybrid, WinType{CheckpointQ3, DirectionReverse}, "hybrid_q3_reverse"},
		{"hybrid final", ModeHybrid, WinType{CheckpointFinal, DirectionForward}, "hybrid_final"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.wt.Tag(tt.mode); got != tt.want {
				t.Errorf("Tag(%q) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag     string
		want    WinType
		wantErr bool
	}{
		{"q1", WinType{CheckpointQ1, DirectionForward}, false},
		{"halftime_reverse", WinType{CheckpointHalftime, DirectionReverse}, false},
		{"final", WinType{CheckpointFinal, DirectionForward}, false},
		{"score_change", WinType{CheckpointNone, DirectionForward}, false},
		{"score_change_reverse", WinType{CheckpointNone, DirectionReverse}, false},
		{"score_change_final", WinType{CheckpointFinal, DirectionForward}, false},
		{"hybrid_halftime", WinType{CheckpointHalftime, DirectionForward}, false},
		{"hybrid_final_reverse", WinType{CheckpointFinal, DirectionReverse}, false},
		{"", WinType{}, true},
		{"q5", WinType{}, true},
		{"hybrid_", WinType{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTag(%q) err = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTag(%q) = %+v, want %+v", tt.tag, got, tt.want)
			}
		})
	}
}

// Every tag the engine can emit must decode back to the win type that
// produced it.
func TestWinTypeTagRoundTrip(t *testing.T) {
	modes := []ScoringMode{ModeQuarter, ModeScoreChange, ModeHybrid}
	dirs := []Direction{DirectionForward, DirectionReverse}

	for _, mode := range modes {
		for _, dir := range dirs {
			var cps []Checkpoint
			switch mode {
			case ModeQuarter:
				all := Checkpoints()
				cps = all[:]
			case ModeScoreChange:
				cps = []Checkpoint{CheckpointNone, CheckpointFinal}
			case ModeHybrid:
				all := Checkpoints()
				cps = append([]Checkpoint{CheckpointNone}, all[:]...)
			}
			for _, cp := range cps {
				wt := WinType{Checkpoint: cp, Direction: dir}
				tag := wt.Tag(mode)
				got, err := ParseTag(tag)
				if err != nil {
					t.Fatalf("ParseTag(%q) error = %v", tag, err)
				}
				if got != wt {
					t.Errorf("round trip %q: got %+v, want %+v", tag, got, wt)
				}
			}
		}
	}
}
