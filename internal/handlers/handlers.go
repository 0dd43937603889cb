// Package handlers implements the service's ambient HTTP surface: liveness
// and readiness probes and the WebSocket upgrade route new WAMP sessions
// join through (cmd/battlerd mounts the Prometheus scrape endpoint itself
// with promhttp). All battle gameplay itself
// happens over the WAMP RPC/Pub-Sub surface registered in internal/service,
// never here.
package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/openmohaa/battler/internal/wamp"
)

// activeBattleCounter narrows Service to the one read Ready needs.
type activeBattleCounter interface {
	ActiveBattleCount() int
}

type Config struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	Logger   *zap.Logger
	Service  activeBattleCounter
	Router   *wamp.Router
	Realm    string
}

type Handler struct {
	pg     *pgxpool.Pool
	redis  *redis.Client
	logger *zap.SugaredLogger
	svc    activeBattleCounter
	router *wamp.Router
	realm  string
}

func New(cfg Config) *Handler {
	return &Handler{
		pg:     cfg.Postgres,
		redis:  cfg.Redis,
		logger: cfg.Logger.Sugar(),
		svc:    cfg.Service,
		router: cfg.Router,
		realm:  cfg.Realm,
	}
}

// Wamp upgrades an incoming HTTP request to a WebSocket connection and
// joins it to the router's realm as a wire-backed session, serving it
// until the client disconnects (the counterpart to the in-process
// sessions the Battle Service itself uses internally).
// @Summary WAMP Session Endpoint
// @Description Upgrades to a WebSocket and joins the caller to the battle realm as a WAMP session
// @Tags Battle
// @Router /wamp [get]
func (h *Handler) Wamp(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	transport := wamp.NewWebSocketTransport(conn)
	session := h.router.JoinRealm(h.realm, transport)
	defer h.router.LeaveRealm(session)

	if err := session.Serve(r.Context()); err != nil {
		h.logger.Debugw("wamp session ended", "error", err)
	}
}
