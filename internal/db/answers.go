package db

import (
	"fmt"
	"strings"
	"time"
)

// AnswerEvent is one completed answer task, buffered and written in batches.
type AnswerEvent struct {
	GameID     string
	QuestionNo int
	Nickname   string
	Outcome    string
	Answer     string
	ElapsedMs  int64
	Points     int
	AnsweredAt time.Time
}

func (d *DB) BatchRecordAnswers(events []AnswerEvent) error {
	if len(events) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`
		INSERT INTO answers (game_id, question_no, nickname, outcome, answer, elapsed_ms, points, answered_at)
		VALUES `)
	args := make([]any, 0, len(events)*8)
	for i, ev := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, ev.GameID, ev.QuestionNo, ev.Nickname, ev.Outcome,
			ev.Answer, ev.ElapsedMs, ev.Points, ev.AnsweredAt)
	}

	if _, err := d.conn.Exec(b.String(), args...); err != nil {
		return fmt.Errorf("batch recording answers: %w", err)
	}
	return nil
}
