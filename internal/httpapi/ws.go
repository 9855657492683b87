package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"barbershop-booking/internal/handler"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// wsHub pushes appointment changes to admin browsers.
type wsHub struct {
	h        *handler.Handler
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func newWSHub(h *handler.Handler, origins []string, log *zap.Logger) *wsHub {
	return &wsHub{
		h: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log: log,
	}
}

// originChecker accepts same-host requests and the configured CORS origins.
func originChecker(origins []string) func(r *http.Request) bool {
	allow := map[string]bool{}
	for _, o := range origins {
		allow[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allow["*"] || allow[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

func (x *wsHub) serve(w http.ResponseWriter, r *http.Request) {
	if err := x.h.Authorize(r.Context()); err != nil {
		st := status.Convert(err)
		writeError(w, httpStatus(st.Code()), st.Message())
		return
	}
	id, changes, cancel, err := x.h.Subscribe()
	if err != nil {
		st := status.Convert(err)
		writeError(w, httpStatus(st.Code()), st.Message())
		return
	}
	defer cancel()

	conn, err := x.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		x.log.Debug("ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	log := x.log.With(zap.String("subscriber", id))
	log.Debug("ws connected")

	// reads only service control frames; any error means the peer is gone
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			log.Debug("ws closed by peer")
			return
		case <-r.Context().Done():
			return
		case c, ok := <-changes:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				log.Debug("ws write", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
