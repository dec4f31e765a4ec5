package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/errs"
	"github.com/UniM0cha/gilton-system/internal/model"
)

// SheetCatalog is the hub's read-only view of the sheet store.
type SheetCatalog interface {
	List() []model.Sheet
	Has(id string) bool
}

// Peer is one WebSocket connection attached to the room. The hub delivers
// outbound frames through Send; the transport handler drains it in its own
// write pump. Only the hub loop closes Send.
type Peer struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time
}

// HubOptions tunes relay behavior.
type HubOptions struct {
	// Replay the presentation state to a newly registering participant.
	ReplayPresentation bool
	// Drop sheet-change events whose sheet id is not in the catalog.
	ValidateSheetChange bool
	// Per-peer outbound buffer. A peer that falls this far behind starts
	// losing frames rather than stalling the room.
	SendBufferSize int
}

type inboundMessage struct {
	peer *Peer
	raw  []byte
}

// RoomHub is the broadcast relay for the single shared room.
//
// It runs a one-goroutine event loop: every registration, disconnect and
// inbound message is processed to completion before the next one, so the
// registry and presentation state need no locking and every observer sees
// a consistent roster. Fan-out is a non-blocking send into each peer's
// buffer; a slow or half-closed peer never blocks the loop or the other
// participants.
type RoomHub struct {
	registry     *SessionRegistry
	presentation *PresentationState
	catalog      SheetCatalog
	opts         HubOptions
	log          *zap.Logger
	upgrader     websocket.Upgrader
	maxMsgSize   int64

	register   chan *Peer
	unregister chan *Peer
	inbound    chan inboundMessage
	external   chan model.Envelope

	// loop-owned
	peers map[string]*Peer

	done chan struct{}
}

// NewRoomHub creates the hub. Run must be started before attaching peers.
func NewRoomHub(registry *SessionRegistry, presentation *PresentationState, catalog SheetCatalog, opts HubOptions, maxMsgSize int64, readBuf, writeBuf int, log *zap.Logger) *RoomHub {
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 64
	}
	return &RoomHub{
		registry:     registry,
		presentation: presentation,
		catalog:      catalog,
		opts:         opts,
		log:          log,
		maxMsgSize:   maxMsgSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// Single shared room on a trusted local network; the Electron
			// shell and browsers on the LAN all connect cross-origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		inbound:    make(chan inboundMessage, 256),
		external:   make(chan model.Envelope, 16),
		peers:      make(map[string]*Peer),
		done:       make(chan struct{}),
	}
}

// Upgrader returns the WebSocket upgrader for the HTTP handler.
func (h *RoomHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Run processes hub events until ctx is cancelled.
func (h *RoomHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case p := <-h.register:
			h.addPeer(p)
		case p := <-h.unregister:
			h.removePeer(p)
		case m := <-h.inbound:
			h.dispatch(m.peer, m.raw)
		case env := <-h.external:
			h.broadcastAll(env)
		case <-ctx.Done():
			return
		}
	}
}

// Attach creates a peer for an upgraded connection and registers it with
// the loop. It returns once the peer is visible to the room.
func (h *RoomHub) Attach(conn *websocket.Conn) *Peer {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	p := &Peer{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, h.opts.SendBufferSize),
		ConnectedAt: time.Now(),
	}
	select {
	case h.register <- p:
	case <-h.done:
	}
	return p
}

// Detach removes a peer from the room. Safe to call once per peer; returns
// after the roster no longer contains it.
func (h *RoomHub) Detach(p *Peer) {
	select {
	case h.unregister <- p:
	case <-h.done:
	}
}

// HandleMessage hands an inbound frame to the loop.
func (h *RoomHub) HandleMessage(p *Peer, raw []byte) {
	select {
	case h.inbound <- inboundMessage{peer: p, raw: raw}:
	case <-h.done:
	}
}

// BroadcastSheetsUpdated pushes the full catalog to every connected peer.
// Called by the upload handler after a successful catalog append.
func (h *RoomHub) BroadcastSheetsUpdated() {
	data, err := json.Marshal(h.catalog.List())
	if err != nil {
		h.log.Error("marshal sheet catalog", zap.Error(err))
		return
	}
	select {
	case h.external <- model.Envelope{Event: model.EventSheetsUpdated, Data: data}:
	case <-h.done:
	}
}

func (h *RoomHub) addPeer(p *Peer) {
	h.peers[p.ID] = p
	h.registry.Add(p.ID, p.ConnectedAt)
	h.log.Info("client connected", zap.String("conn_id", p.ID), zap.Int("total", len(h.peers)))
}

func (h *RoomHub) removePeer(p *Peer) {
	if _, ok := h.peers[p.ID]; !ok {
		return
	}
	delete(h.peers, p.ID)
	h.registry.Remove(p.ID)
	close(p.Send)
	h.log.Info("client disconnected", zap.String("conn_id", p.ID), zap.Int("total", len(h.peers)))
	// Removal is complete before the roster goes out, so a disconnected
	// participant never appears in a later snapshot.
	h.pushRosterToAdmins()
}

func (h *RoomHub) dispatch(p *Peer, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Warn("malformed frame dropped", zap.String("conn_id", p.ID), zap.Error(err))
		return
	}

	switch env.Event {
	case model.EventRegister:
		h.handleRegister(p, env.Data)
	case model.EventRegisterAdmin:
		h.handleRegisterAdmin(p)
	case model.EventSheetChange:
		h.handleSheetChange(p, env.Data)
	case model.EventDrawingUpdate:
		h.handleDrawingUpdate(p, env.Data)
	case model.EventCommand:
		h.handleCommand(p, env.Data)
	case model.EventGetSheets:
		h.sendSheets(p)
	default:
		h.log.Warn("unknown event dropped", zap.String("conn_id", p.ID), zap.String("event", env.Event))
	}
}

func (h *RoomHub) handleRegister(p *Peer, data json.RawMessage) {
	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		h.log.Warn("malformed register dropped", zap.String("conn_id", p.ID), zap.Error(err))
		return
	}
	if profile.Nickname == "" || !profile.Role.Valid() {
		h.log.Warn("register with missing nickname or bad role dropped",
			zap.String("conn_id", p.ID), zap.String("role", string(profile.Role)))
		return
	}

	h.registry.Register(p.ID, profile)
	h.log.Info("profile registered",
		zap.String("conn_id", p.ID),
		zap.String("nickname", profile.Nickname),
		zap.String("role", string(profile.Role)))

	h.pushRosterToAdmins()
	h.sendSheets(p)
	if h.opts.ReplayPresentation {
		h.send(p, model.EventPresentationState, h.presentation.Snapshot())
	}
}

func (h *RoomHub) handleRegisterAdmin(p *Peer) {
	h.registry.RegisterAdmin(p.ID)
	h.log.Info("admin registered", zap.String("conn_id", p.ID))
	h.send(p, model.EventUsers, h.registry.ListProfiled())
	h.sendSheets(p)
}

func (h *RoomHub) handleSheetChange(p *Peer, data json.RawMessage) {
	var change model.SheetChange
	if err := json.Unmarshal(data, &change); err != nil || change.SheetID == "" {
		h.log.Warn("malformed sheet-change dropped", zap.String("conn_id", p.ID))
		return
	}
	if h.opts.ValidateSheetChange && !h.catalog.Has(change.SheetID) {
		h.log.Warn("sheet-change dropped",
			zap.String("conn_id", p.ID), zap.String("sheet_id", change.SheetID),
			zap.Error(errs.ErrUnknownSheet))
		return
	}

	h.presentation.Set(change.SheetID, change.PageNumber)
	h.broadcastExcept(p, model.Envelope{Event: model.EventSheetChange, Data: data})
}

func (h *RoomHub) handleDrawingUpdate(p *Peer, data json.RawMessage) {
	var drawing model.DrawingUpdate
	if err := json.Unmarshal(data, &drawing); err != nil || drawing.SheetID == "" {
		h.log.Warn("malformed drawing-update dropped", zap.String("conn_id", p.ID))
		return
	}
	h.broadcastExcept(p, model.Envelope{Event: model.EventDrawingUpdate, Data: data})
}

func (h *RoomHub) handleCommand(p *Peer, data json.RawMessage) {
	participant, ok := h.registry.Get(p.ID)
	if !ok || !participant.Registered() {
		return
	}
	if !CanSend(participant.Profile.Role, ActionCommand) {
		// Observed behavior: unauthorized commands vanish without an error
		// back to the sender.
		h.log.Debug("command from unauthorized role dropped",
			zap.String("conn_id", p.ID), zap.String("role", string(participant.Profile.Role)))
		return
	}

	var cmd model.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.log.Warn("malformed command dropped", zap.String("conn_id", p.ID))
		return
	}

	event := model.CommandEvent{Command: cmd, Sender: *participant.Profile}
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal command event", zap.Error(err))
		return
	}
	h.log.Info("command relayed",
		zap.String("conn_id", p.ID),
		zap.String("text", cmd.Text))
	h.broadcastExcept(p, model.Envelope{Event: model.EventCommand, Data: payload})
}

func (h *RoomHub) sendSheets(p *Peer) {
	h.send(p, model.EventSheets, h.catalog.List())
}

func (h *RoomHub) pushRosterToAdmins() {
	roster := h.registry.ListProfiled()
	for _, id := range h.registry.Admins() {
		if p, ok := h.peers[id]; ok {
			h.send(p, model.EventUsers, roster)
		}
	}
}

func (h *RoomHub) send(p *Peer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal outbound payload", zap.String("event", event), zap.Error(err))
		return
	}
	h.deliver(p, model.Envelope{Event: event, Data: data})
}

func (h *RoomHub) broadcastExcept(sender *Peer, env model.Envelope) {
	for _, p := range h.peers {
		if p.ID == sender.ID {
			continue
		}
		h.deliver(p, env)
	}
}

func (h *RoomHub) broadcastAll(env model.Envelope) {
	for _, p := range h.peers {
		h.deliver(p, env)
	}
}

func (h *RoomHub) deliver(p *Peer, env model.Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		h.log.Error("marshal envelope", zap.String("event", env.Event), zap.Error(err))
		return
	}
	select {
	case p.Send <- frame:
	default:
		h.log.Warn("peer send buffer full, frame dropped",
			zap.String("conn_id", p.ID), zap.String("event", env.Event))
	}
}
