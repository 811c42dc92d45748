package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCorrect = "correct"
	OutcomeWrong   = "wrong"
	OutcomeTimeout = "timeout"
)

var (
	ConnectedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizroom_connected_players",
		Help: "Players currently connected with an accepted nickname.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizroom_active_rooms",
		Help: "Open rooms, lobby and in-game.",
	})

	GamesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_games_total",
		Help: "Games driven to the scoreboard.",
	})

	AnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizroom_answers_total",
		Help: "Answer tasks completed, by outcome.",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
