package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"agentdesk/internal/clients"
	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
	"agentdesk/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	pingPeriod   = readTimeout / 2
)

// Submitter runs one action. *worker.Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, req computer.Request) (*computer.Result, error)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleWS handles websocket control connections. Each text message is an
// ActionMessage; each reply is a ResultMessage with the same id.
func HandleWS(mgr *clients.Manager, q Submitter, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "default"
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade error: %v", err)
			return
		}

		ws.SetReadLimit(8 << 20) // 8MB
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		ws.SetPongHandler(func(appData string) error {
			ws.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})

		log.Info("New websocket connection client=%s", clientID)

		if old := mgr.SetControl(clientID, ws); old != nil {
			log.Debug("replacing control connection for client=%s", clientID)
			old.Close()
		}
		go handleActions(clientID, mgr, q, ws, log)
	}
}

func handleActions(clientID string, mgr *clients.Manager, q Submitter, ws *websocket.Conn, log *logger.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		mgr.RemoveControl(clientID, ws)
		ws.Close()
	}()
	go keepAlive(ctx, ws)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			log.Debug("control read error: %v", err)
			return
		}

		var out types.ResultMessage
		var in types.ActionMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			log.Warn("json error: %v", err)
			out = types.ResultMessage{Error: "json error: " + err.Error(), ErrorKind: "bad_message"}
		} else {
			res, err := q.Submit(ctx, in.Request())
			out = types.NewResultMessage(in.ID, res, err)
		}

		payload, err := json.Marshal(out)
		if err != nil {
			log.Error("marshal result: %v", err)
			continue
		}
		ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn("write error: %v", err)
			return
		}
	}
}

// keepAlive pings until ctx ends. WriteControl is safe alongside the reader
// loop's writes.
func keepAlive(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
