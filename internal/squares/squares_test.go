package squares

import (
	"errors"
	"testing"
	"time"
)

func identityDigits() Digits {
	return Digits{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
}

func TestParseDigits(t *testing.T) {
	tests := []struct {
		name    string
		vals    []int
		wantErr bool
	}{
		{"identity", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, false},
		{"shuffled", []int{3, 7, 0, 1, 5, 9, 2, 8, 6, 4}, false},
		{"short", []int{0, 1, 2}, true},
		{"long", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9}, true},
		{"repeat", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 8}, true},
		{"out of range", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, true},
		{"negative", []int{-1, 1, 2, 3, 4, 5, 6, 7, 8, 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDigits(tt.vals)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDigits(%v) err = %v, wantErr %v", tt.vals, err, tt.wantErr)
			}
		})
	}
}

func TestRandomDigits_IsPermutation(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := RandomDigits()
		if _, err := ParseDigits(d.Slice()); err != nil {
			t.Fatalf("RandomDigits() = %v, not a permutation: %v", d, err)
		}
	}
}

func TestDigits_IndexOf(t *testing.T) {
	d := Digits{3, 7, 0, 1, 5, 9, 2, 8, 6, 4}
	for i, v := range d {
		if got := d.IndexOf(v); got != i {
			t.Errorf("IndexOf(%d) = %d, want %d", v, got, i)
		}
	}
}

func TestPool_Lock(t *testing.T) {
	now := time.Date(2025, 10, 12, 18, 0, 0, 0, time.UTC)
	p := Pool{ID: 1, Mode: ModeScoreChange}

	if err := p.Lock(identityDigits(), identityDigits(), now); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !p.Locked || p.LockedAt == nil || !p.LockedAt.Equal(now) {
		t.Errorf("Lock() left pool = %+v", p)
	}
	if err := p.Lock(identityDigits(), identityDigits(), now); !errors.Is(err, ErrPoolLocked) {
		t.Errorf("second Lock() error = %v, want ErrPoolLocked", err)
	}
}

func TestCheckpoint_Order(t *testing.T) {
	order := []Checkpoint{CheckpointNone, CheckpointQ1, CheckpointHalftime, CheckpointQ3, CheckpointFinal}
	for i, cp := range order {
		if got := cp.Order(); got != i {
			t.Errorf("Checkpoint(%q).Order() = %d, want %d", cp, got, i)
		}
	}
}

func TestCheckpoint_Follows(t *testing.T) {
	tests := []struct {
		cp, prev Checkpoint
		want     bool
	}{
		{CheckpointQ1, CheckpointNone, true},
		{CheckpointHalftime, CheckpointQ1, true},
		{CheckpointQ3, CheckpointHalftime, true},
		{CheckpointFinal, CheckpointQ3, true},
		{CheckpointHalftime, CheckpointNone, false},
		{CheckpointQ3, CheckpointQ1, false},
		{CheckpointQ1, CheckpointQ1, false},
		{CheckpointFinal, CheckpointQ1, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cp)+"_after_"+string(tt.prev), func(t *testing.T) {
			if got := tt.cp.Follows(tt.prev); got != tt.want {
				t.Errorf("Checkpoint(%q).Follows(%q) = %v, want %v", tt.cp, tt.prev, got, tt.want)
			}
		})
	}
}

func TestPool_Cells_Forward(t *testing.T) {
	p := Pool{Locked: true, RowDigits: identityDigits(), ColDigits: identityDigits()}

	tests := []struct {
		name       string
		home, away int
		row, col   int
	}{
		{"zero", 0, 0, 0, 0},
		{"single digits", 7, 3, 7, 3},
		{"last digit only", 17, 23, 7, 3},
		{"big scores", 147, 103, 7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wins, err := p.Cells(tt.home, tt.away)
			if err != nil {
				t.Fatalf("Cells(%d, %d) error = %v", tt.home, tt.away, err)
			}
			if len(wins) != 1 {
				t.Fatalf("Cells(%d, %d) returned %d wins, want 1", tt.home, tt.away, len(wins))
			}
			w := wins[0]
			if w.Row != tt.row || w.Col != tt.col || w.Direction != DirectionForward {
				t.Errorf("Cells(%d, %d) = %+v, want row=%d col=%d forward", tt.home, tt.away, w, tt.row, tt.col)
			}
		})
	}
}

func TestPool_Cells_ShuffledAxes(t *testing.T) {
	rows := Digits{3, 7, 0, 1, 5, 9, 2, 8, 6, 4}
	cols := Digits{8, 2, 6, 0, 4, 1, 9, 3, 7, 5}
	p := Pool{Locked: true, RowDigits: rows, ColDigits: cols}

	// 21-14: home digit 1 sits at row 3, away digit 4 at col 4.
	wins, err := p.Cells(21, 14)
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	if wins[0].Row != 3 || wins[0].Col != 4 {
		t.Errorf("Cells(21, 14) = %+v, want row=3 col=4", wins[0])
	}
}

func TestPool_Cells_Reverse(t *testing.T) {
	p := Pool{Locked: true, ReverseScoring: true, RowDigits: identityDigits(), ColDigits: identityDigits()}

	wins, err := p.Cells(27, 13)
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	if len(wins) != 2 {
		t.Fatalf("Cells() returned %d wins, want forward and reverse", len(wins))
	}
	fwd, rev := wins[0], wins[1]
	if fwd.Direction != DirectionForward || fwd.Row != 7 || fwd.Col != 3 {
		t.Errorf("forward win = %+v, want row=7 col=3", fwd)
	}
	if rev.Direction != DirectionReverse || rev.Row != 3 || rev.Col != 7 {
		t.Errorf("reverse win = %+v, want row=3 col=7", rev)
	}
}

func TestPool_Cells_TiedDigitsHitSameCell(t *testing.T) {
	p := Pool{Locked: true, ReverseScoring: true, RowDigits: identityDigits(), ColDigits: identityDigits()}

	// 14-14: forward and reverse resolve to the same cell. Both rows are
	// still reported, one per direction.
	wins, err := p.Cells(14, 14)
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	if len(wins) != 2 {
		t.Fatalf("Cells(14, 14) returned %d wins, want 2", len(wins))
	}
	for _, w := range wins {
		if w.Row != 4 || w.Col != 4 {
			t.Errorf("win %+v, want row=4 col=4", w)
		}
	}
	if wins[0].Direction == wins[1].Direction {
		t.Errorf("both wins carry direction %q", wins[0].Direction)
	}
}

func TestPool_Cells_Unlocked(t *testing.T) {
	p := Pool{Locked: false}
	if _, err := p.Cells(7, 0); !errors.Is(err, ErrPoolUnlocked) {
		t.Errorf("Cells() on unlocked pool error = %v, want ErrPoolUnlocked", err)
	}
}
