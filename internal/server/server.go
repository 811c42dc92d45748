package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"quizroom/internal/config"
	"quizroom/internal/db"
	"quizroom/internal/events"
	"quizroom/internal/metrics"
	"quizroom/internal/players"
	"quizroom/internal/protocol"
	"quizroom/internal/quiz"
	"quizroom/internal/rooms"
	"quizroom/internal/transport"
	"quizroom/internal/wsbridge"
)

type Server struct {
	Catalog      *quiz.Catalog
	Players      *players.Store
	Rooms        *rooms.Store
	Conns        *transport.Table
	DB           *db.DB              // nil if no database configured
	AnswerBuffer chan db.AnswerEvent // nil if no database configured

	nextID   atomic.Int64
	closing  atomic.Bool
	listener net.Listener
	ops      *http.Server
}

func New() *Server {
	catalog := quiz.NewCatalog()
	catalog.LoadSamples()
	return &Server{
		Catalog: catalog,
		Players: players.NewStore(),
		Rooms:   rooms.NewStore(),
		Conns:   transport.NewTable(),
	}
}

// Run starts the trivia server. A single CLI argument overrides the listen
// port from the environment.
func Run(args []string) error {
	appCfg := config.Load()
	if len(args) > 0 {
		if err := config.ValidatePort(args[0]); err != nil {
			return err
		}
		appCfg.Port = args[0]
	} else if err := config.ValidatePort(appCfg.Port); err != nil {
		return err
	}

	srv := New()

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.AnswerBuffer = make(chan db.AnswerEvent, 1000)
			go answerBatchWriter(database, srv.AnswerBuffer)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	if appCfg.HTTPAddr != "" {
		srv.ops = &http.Server{Addr: appCfg.HTTPAddr, Handler: srv.opsMux()}
		go func() {
			log.Printf("[Ops] Serving /metrics, /healthz and /ws on %s\n", appCfg.HTTPAddr)
			if err := srv.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[Ops] HTTP server error: %v\n", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", "0.0.0.0:"+appCfg.Port)
	if err != nil {
		return fmt.Errorf("listening on port %s: %w", appCfg.Port, err)
	}
	srv.listener = ln

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[Server] Closing server")
		srv.Shutdown()
		os.Exit(0)
	}()

	fmt.Printf("Server listening on port %s\n", appCfg.Port)
	return srv.AcceptLoop()
}

// AcceptLoop serves connections until the listener closes.
func (s *Server) AcceptLoop() error {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		log.Printf("[Server] new connection from %s\n", nc.RemoteAddr())
		go s.ServeConn(nc)
	}
}

// ServeConn runs one full connection session over any stream transport. The
// websocket bridge funnels into it too.
func (s *Server) ServeConn(nc net.Conn) {
	id := s.nextID.Add(1)
	conn := transport.New(id, nc)
	s.Conns.Add(conn)
	s.Players.Register(id)

	sess := &session{srv: s, conn: conn}
	sess.run()
}

// Shutdown wakes every blocked wait, notifies all connections and releases
// the registries.
func (s *Server) Shutdown() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	for _, room := range s.Rooms.All() {
		room.SetInGame(false)
		room.Bus.Publish(events.Event{Kind: events.GameEnded})
		s.Rooms.Delete(room.ID)
	}
	s.Conns.Each(func(c *transport.Conn) {
		if err := c.Send(protocol.ServerShutdown); err != nil {
			log.Printf("[Server] shutdown notice failed for conn %d: %v\n", c.ID(), err)
		}
		c.Close()
	})
	if s.listener != nil {
		s.listener.Close()
	}
	if s.ops != nil {
		s.ops.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func (s *Server) opsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/ws", wsbridge.Handler(s.ServeConn))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":%q,"error":%q}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":%q}`, status)
}

func answerBatchWriter(database *db.DB, buffer chan db.AnswerEvent) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	batch := make([]db.AnswerEvent, 0, 50)

	for {
		select {
		case ev := <-buffer:
			batch = append(batch, ev)
			if len(batch) >= 50 {
				if err := database.BatchRecordAnswers(batch); err != nil {
					log.Printf("[DB] BatchRecordAnswers error: %v\n", err)
				}
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				if err := database.BatchRecordAnswers(batch); err != nil {
					log.Printf("[DB] BatchRecordAnswers error: %v\n", err)
				}
				batch = batch[:0]
			}
		}
	}
}
