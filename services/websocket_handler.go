package services

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	ws "github.com/krshsl/sensai/backend/websocket"
)

// WebSocketHandler serves the guidance chat over a socket. Each frame is one
// GuidanceRequest and gets exactly one reply frame.
type WebSocketHandler struct {
	coach    *Coach
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(coach *Coach, hub *ws.Hub, allowedOrigins string) *WebSocketHandler {
	return &WebSocketHandler{
		coach: coach,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, allowedOrigins)
			},
		},
	}
}

// ServeHTTP upgrades an authenticated request and starts the pumps
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		slog.Error("WebSocket connection failed - identity not found in context")
		respondError(w, ErrUnauthorized, msgUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client := h.hub.RegisterClient(r.Context(), conn, identity.ExternalID)
	client.MessageHandler = func(c *ws.Client, messageBytes []byte) {
		h.HandleWebSocketMessage(c, identity, messageBytes)
	}
	slog.Info("WebSocket connection established", "external_id", identity.ExternalID, "session_id", client.SessionID)

	go client.WritePump()
	go client.ReadPump()
}

// HandleWebSocketMessage runs one guidance exchange for a frame
func (h *WebSocketHandler) HandleWebSocketMessage(client *ws.Client, identity *Identity, messageBytes []byte) {
	var req GuidanceRequest
	if err := decodeRequest(bytes.NewReader(messageBytes), &req); err != nil {
		slog.Warn("Rejected WebSocket frame", "error", err, "session_id", client.SessionID)
		h.reply(client, nil, err)
		return
	}

	reply, err := h.coach.Guidance(client.Context(), identity, req)
	if err != nil {
		slog.Error("Failed to answer WebSocket frame", "error", err, "session_id", client.SessionID)
		h.reply(client, nil, err)
		return
	}
	h.reply(client, GuidanceResponse{Success: true, Response: reply}, nil)
}

func (h *WebSocketHandler) reply(client *ws.Client, payload any, err error) {
	if err != nil {
		payload = errorBody(err, errorMessageFor(UseCaseGuidance, err))
	}

	b, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		slog.Error("Failed to marshal WebSocket reply", "error", marshalErr)
		return
	}
	client.Deliver(b)
}
