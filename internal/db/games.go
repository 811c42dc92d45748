package db

import (
	"fmt"

	"github.com/google/uuid"
)

func (d *DB) CreateGame(roomID int64, hostNickname, quizTitle string, questionCount int) (string, error) {
	id := uuid.New().String()
	_, err := d.conn.Exec(`
		INSERT INTO games (id, room_id, host_nickname, quiz_title, question_count, started_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, id, roomID, hostNickname, quizTitle, questionCount)
	if err != nil {
		return "", fmt.Errorf("creating game: %w", err)
	}
	return id, nil
}

func (d *DB) EndGame(gameID string) error {
	_, err := d.conn.Exec(`
		UPDATE games SET ended_at = now() WHERE id = $1
	`, gameID)
	if err != nil {
		return fmt.Errorf("ending game: %w", err)
	}
	return nil
}

// AddStanding records one player's final rank and score for a finished game.
func (d *DB) AddStanding(gameID, nickname string, finalScore, rank int) error {
	_, err := d.conn.Exec(`
		INSERT INTO game_players (game_id, nickname, final_score, rank)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, nickname) DO UPDATE SET final_score = $3, rank = $4
	`, gameID, nickname, finalScore, rank)
	if err != nil {
		return fmt.Errorf("adding game player: %w", err)
	}
	return nil
}
