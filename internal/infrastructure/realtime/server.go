package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/pkg/jwt"
)

const writeTimeout = 5 * time.Second

// Server gateway HTTP: /health y /ws?token=<jwt>.
type Server struct {
	hub       *Hub
	jwtSecret string
	origins   []string
	log       zerolog.Logger
}

// NewServer construye el gateway. origins son patrones de Origin aceptados (ej. "app.iptegra.com", "localhost:*").
func NewServer(hub *Hub, jwtSecret string, origins []string, log zerolog.Logger) *Server {
	return &Server{hub: hub, jwtSecret: jwtSecret, origins: origins, log: log}
}

// Router devuelve el mux chi del gateway.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.health)
	r.Get("/ws", s.serveWS)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// serveWS autentica por token antes del upgrade: sin token válido no hay WebSocket.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token requerido", http.StatusUnauthorized)
		return
	}
	id, err := jwt.Parse(s.jwtSecret, token)
	if err != nil || id.CompanyID == "" {
		http.Error(w, "token inválido o expirado", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.log.Debug().Err(err).Msg("upgrade rechazado")
		return
	}
	defer conn.CloseNow()

	sub := s.hub.Subscribe(id.CompanyID, 64)
	defer s.hub.Unsubscribe(sub)
	log := s.log.With().Str("company_id", id.CompanyID).Str("user_id", id.UserID).Logger()
	log.Debug().Msg("conexión realtime abierta")

	// el cliente no envía mensajes: CloseRead descarta lo recibido y cancela ctx al cerrar
	ctx := conn.CloseRead(r.Context())

	// la conexión vive como mucho hasta que expira el token
	if !id.ExpiresAt.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, id.ExpiresAt)
		defer cancel()
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			log.Debug().Msg("conexión realtime cerrada")
			return
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutdown")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("escritura realtime fallida")
				return
			}
		}
	}
}
