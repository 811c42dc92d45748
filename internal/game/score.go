package game

// Points awards a correct answer: a 1000-point base plus a speed bonus that
// decays from the full answer budget down to zero, floor-divided by 50.
func Points(answerTimeSecs int, elapsedMs int64) int {
	return 1000 + int(floorDiv(1000*int64(answerTimeSecs)-elapsedMs, 50))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
