package squares

// CellWin is a grid cell selected by the digit-match rule for one score
// observation.
type CellWin struct {
	Row       int
	Col       int
	Direction Direction
}

// lastDigit assumes non-negative scores.
func lastDigit(score int) int {
	return score % 10
}

// Cells applies the digit-match rule to a score observation and returns
// the winning cells. The forward cell matches (home digit, away digit)
// against (row, col); when reverse scoring is enabled the transposed
// pair is matched too. The transposed pair can land on the same cell
// (e.g. 14-14): both results are still returned, each under its own
// direction, so the caller records one row per direction.
func (p Pool) Cells(home, away int) ([]CellWin, error) {
	if !p.Locked {
		return nil, ErrPoolUnlocked
	}
	hd, ad := lastDigit(home), lastDigit(away)

	wins := []CellWin{{
		Row:       p.RowDigits.IndexOf(hd),
		Col:       p.ColDigits.IndexOf(ad),
		Direction: DirectionForward,
	}}
	if p.ReverseScoring {
		wins = append(wins, CellWin{
			Row:       p.RowDigits.IndexOf(ad),
			Col:       p.ColDigits.IndexOf(hd),
			Direction: DirectionReverse,
		})
	}
	return wins, nil
}
