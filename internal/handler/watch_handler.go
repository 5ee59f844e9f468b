package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/campushq/gatepass-backend/internal/metrics"
	"github.com/campushq/gatepass-backend/internal/middleware"
	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/service"
	ws "github.com/campushq/gatepass-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WatchHandler streams live gate-pass snapshots over WebSocket.
type WatchHandler struct {
	watchService     *service.WatchService
	directoryService *service.DirectoryService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(watchService *service.WatchService, directoryService *service.DirectoryService, log zerolog.Logger, allowedOrigins []string) *WatchHandler {
	return &WatchHandler{
		watchService:     watchService,
		directoryService: directoryService,
		log:              log.With().Str("component", "watch_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// watchConn owns the single active watcher for one WebSocket connection.
type watchConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	watcher *service.Watcher
	fwdDone chan struct{}
}

func (wc *watchConn) write(v interface{}) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	return ws.WriteTyped(wc.conn, v)
}

// stopWatch cancels the active watcher, if any, and waits for its forwarder
// to drain so a replacement never interleaves with stale snapshots.
func (wc *watchConn) stopWatch() {
	if wc.watcher == nil {
		return
	}
	wc.watcher.Close()
	<-wc.fwdDone
	wc.watcher = nil
	wc.fwdDone = nil
}

// Stream godoc
// WS /ws/v1/passes/stream?token=...
// Upgrades to WebSocket and serves live snapshot projections of the pass
// collection. Students observe their own passes; admins observe all of them.
func (h *WatchHandler) Stream(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Role is resolved once at stream establishment and fixes the scope for
	// the lifetime of the connection.
	role := h.directoryService.ResolveRole(c.Request.Context(), sess.Email)
	scope := service.WatchScope{}
	scopeName := "all"
	if role != model.RoleAdmin {
		owner := sess.UserID
		scope.OwnerID = &owner
		scopeName = "own"
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wc := &watchConn{conn: conn}
	defer wc.stopWatch()

	wsLog := h.log.With().
		Str("user_id", sess.UserID.String()).
		Str("scope", scopeName).
		Logger()
	wsLog.Info().Msg("Watch stream connected")
	defer wsLog.Info().Msg("Watch stream closed")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionWatch:
			h.startWatch(c, wc, scope, scopeName, wsLog)
		case ws.ActionUnwatch:
			wc.stopWatch()
			wc.write(ws.StoppedResponse{Event: ws.EventStopped})
		case ws.ActionPing:
			wc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wc.write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action"})
		}
	}
}

// startWatch replaces any active watcher with a fresh one; at most one
// subscription is live per connection.
func (h *WatchHandler) startWatch(c *gin.Context, wc *watchConn, scope service.WatchScope, scopeName string, wsLog zerolog.Logger) {
	wc.stopWatch()

	watcher, err := h.watchService.Watch(c.Request.Context(), scope)
	if err != nil {
		wsLog.Error().Err(err).Msg("Watch subscription failed")
		wc.write(ws.ErrorResponse{Event: ws.EventError, Error: "subscription failed"})
		return
	}

	wc.watcher = watcher
	wc.fwdDone = make(chan struct{})
	metrics.WatchStreamsActive.Inc()

	go func(w *service.Watcher, done chan struct{}) {
		defer close(done)
		defer metrics.WatchStreamsActive.Dec()

		for snap := range w.Snapshots() {
			if err := wc.write(ws.SnapshotResponse{
				Event:  ws.EventSnapshot,
				Scope:  scopeName,
				Passes: snap,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Snapshot write failed")
				w.Close()
				return
			}
		}

		// A stream error is surfaced on the socket but never kills the
		// connection; the client may issue a new watch to retry.
		if err := w.Err(); err != nil {
			wc.write(ws.ErrorResponse{Event: ws.EventError, Error: "stream terminated"})
		}
	}(watcher, wc.fwdDone)
}
