package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/metrics"
	"github.com/xhad/muffin/pkg/rag"
)

// User-facing texts.
const (
	MissingKeyMessage = "N'oubliez pas de saisir votre clé API dans la barre latérale ! 👈"
	EmptyQueryMessage = "Dites-moi quelque chose, je ne lis pas encore dans les pensées ! 🧁"
	SearchingMessage  = "Recherche de la meilleure recette dans mon grimoire..."
	WelcomeMessage    = "Je suis la cheffe muffin, je possède dans mon grimoire tout un tas de recettes de muffins, plus délicieuses les unes que les autres ! Des envies particulières aujourd'hui ? Je vous trouverai LA recette la plus adaptée."
)

// Message types exchanged over the websocket.
const (
	TypeAsk      = "ask"
	TypeStatus   = "status"
	TypeResponse = "response"
	TypeSources  = "sources"
	TypeError    = "error"
	TypeWarning  = "warning"
)

//go:embed static/index.html
var staticFS embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	APIKey  string      `json:"api_key,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	Addr        string
	Title       string
	ShowSources bool
	Metrics     bool
}

type WSServer struct {
	config  Config
	chef    *rag.Chef
	metrics metrics.Metrics
	page    *template.Template
	log     *logrus.Entry
}

func NewWSServer(config Config, chef *rag.Chef, m metrics.Metrics) (*WSServer, error) {
	if chef == nil || chef.Index == nil || chef.Generator == nil {
		return nil, errors.New("server needs a ready chef")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}

	page, err := template.ParseFS(staticFS, "static/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page template")
	}

	return &WSServer{
		config:  config,
		chef:    chef,
		metrics: m,
		page:    page,
		log:     logrus.WithField("component", "server"),
	}, nil
}

// Handler routes every endpoint of the UI.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/api/ask", s.instrument("ask", http.HandlerFunc(s.handleAsk)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
	})
	if s.config.Metrics {
		mux.Handle("/metrics", metrics.NewMetricsHandler(s.metrics))
	}
	return mux
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *WSServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.config.Addr).Info("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "web server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *WSServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Execute(w, map[string]interface{}{
		"Title":       s.config.Title,
		"Welcome":     WelcomeMessage,
		"ShowSources": s.config.ShowSources,
	})
	if err != nil {
		s.log.WithError(err).Error("failed to render page")
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("error reading message")
			}
			return
		}

		// One question at a time per connection.
		s.handleMessage(r.Context(), conn, msg)
	}
}

// handleMessage checks the key first, then the query, like the form does.
func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	if msg.Type != TypeAsk {
		s.sendMessage(conn, Message{Type: TypeError, Content: "type de message inconnu : " + msg.Type})
		return
	}

	if !s.chef.Generator.HasCredential(msg.APIKey) {
		s.metrics.ObserveQuestion(metrics.OutcomeNoAPIKey)
		s.sendMessage(conn, Message{Type: TypeError, Content: MissingKeyMessage})
		return
	}

	if strings.TrimSpace(msg.Content) == "" {
		s.metrics.ObserveQuestion(metrics.OutcomeEmptyQuery)
		s.sendMessage(conn, Message{Type: TypeWarning, Content: EmptyQueryMessage})
		return
	}

	s.sendMessage(conn, Message{Type: TypeStatus, Content: SearchingMessage})

	answer, err := s.chef.Ask(ctx, msg.Content, msg.APIKey)
	if err != nil {
		s.log.WithError(err).Error("question failed")
		s.sendMessage(conn, Message{Type: TypeError, Content: "Erreur : " + err.Error()})
		return
	}

	s.sendMessage(conn, Message{Type: TypeResponse, Content: answer.Text})
	if s.config.ShowSources {
		s.sendMessage(conn, Message{Type: TypeSources, Data: answer.SourceTitles()})
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.WithError(err).Warn("error sending message")
	}
}

type askRequest struct {
	Query  string `json:"query"`
	APIKey string `json:"api_key"`
}

type askResponse struct {
	Answer    string   `json:"answer,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	Generated bool     `json:"generated"`
	Error     string   `json:"error,omitempty"`
}

func (s *WSServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, askResponse{Error: "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, askResponse{Error: "invalid JSON body"})
		return
	}

	answer, err := s.chef.Ask(r.Context(), req.Query, req.APIKey)
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, askResponse{Error: EmptyQueryMessage})
		return
	case err != nil:
		s.log.WithError(err).Error("question failed")
		writeJSON(w, http.StatusBadGateway, askResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toResponse(answer))
}

func toResponse(a *models.Answer) askResponse {
	return askResponse{
		Answer:    a.Text,
		Sources:   a.SourceTitles(),
		Generated: a.Generated,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v) //nolint:errcheck
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *WSServer) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveAPIEndpointDuration(name, r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
