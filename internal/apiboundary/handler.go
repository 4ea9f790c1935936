package apiboundary

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/lanscope/lanscope/internal/registry"
)

// Handler exposes the registry's read operations over REST and its
// subscription stream over WebSocket. It never calls AddOrUpdate, Remove,
// or any other mutating registry method.
type Handler struct {
	registry *registry.Registry
	hub      *hub
	logger   *zap.Logger

	unsubscribe func()
	done        chan struct{}
}

// New builds a Handler wired to reg and starts forwarding its subscription
// events to connected WebSocket clients. Call Close to stop forwarding.
func New(reg *registry.Registry, logger *zap.Logger) *Handler {
	h := &Handler{
		registry: reg,
		hub:      newHub(logger),
		logger:   logger,
		done:     make(chan struct{}),
	}
	events, unsubscribe := reg.Subscribe()
	h.unsubscribe = unsubscribe
	go h.forwardEvents(events)
	return h
}

// Close stops forwarding registry events and releases the subscription.
func (h *Handler) Close() {
	h.unsubscribe()
	<-h.done
}

func (h *Handler) forwardEvents(events <-chan registry.Event) {
	defer close(h.done)
	for ev := range events {
		h.hub.broadcast(Message{
			Type:      messageTypeFor(ev.Kind),
			Timestamp: ev.Device.LastSeen,
			Device:    ev.Device,
		})
	}
}

func messageTypeFor(kind registry.UpdateKind) MessageType {
	switch kind {
	case registry.UpdateCreated:
		return MessageDeviceCreated
	case registry.UpdateWentOffline:
		return MessageDeviceWentOffline
	default:
		return MessageDeviceUpdated
	}
}

// RegisterRoutes registers apiboundary's REST and WebSocket routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/devices", h.handleListDevices)
	mux.HandleFunc("GET /api/v1/devices/{mac}", h.handleGetDevice)
	mux.HandleFunc("GET /api/v1/ws/devices", h.handleDeviceStream)
}

func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.registry.GetAll()); err != nil {
		h.logger.Warn("failed to encode device list", zap.Error(err))
	}
}

func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	mac := r.PathValue("mac")
	device, ok := h.registry.GetByMAC(mac)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(device); err != nil {
		h.logger.Warn("failed to encode device", zap.Error(err))
	}
}

func (h *Handler) handleDeviceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan Message, 256),
		logger: h.logger,
	}
	h.hub.register(c)

	ctx := r.Context()
	pumpDone := make(chan struct{})
	go func() {
		c.writePump(ctx)
		close(pumpDone)
	}()

	c.readPump(ctx)

	h.hub.unregister(c)
	conn.Close(websocket.StatusNormalClosure, "")
	<-pumpDone
}
