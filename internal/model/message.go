package model

import (
	"encoding/json"
	"time"
)

// Envelope is the wire frame for every WebSocket message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server events.
const (
	EventRegister      = "register"
	EventRegisterAdmin = "register-admin"
	EventSheetChange   = "sheet-change"
	EventDrawingUpdate = "drawing-update"
	EventCommand       = "command"
	EventGetSheets     = "get-sheets"
)

// Server -> client events.
const (
	EventUsers             = "users"
	EventSheets            = "sheets"
	EventSheetsUpdated     = "sheets-updated"
	EventPresentationState = "presentation-state"
)

// Command is an ephemeral instruction shown to viewers (e.g. "next verse").
// It is relayed once and never persisted.
type Command struct {
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

// CommandEvent is the broadcast form of a command, carrying the sender's
// profile so receivers can attribute it.
type CommandEvent struct {
	Command Command `json:"command"`
	Sender  Profile `json:"sender"`
}

// SheetChange selects the sheet (and optionally page) everyone should see.
type SheetChange struct {
	SheetID    string `json:"sheetId"`
	PageNumber *int   `json:"pageNumber,omitempty"`
}

// Point is a single coordinate in a drawing path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawingPath is one stroke of a shared annotation.
type DrawingPath struct {
	Points  []Point  `json:"points"`
	Color   string   `json:"color"`
	Width   float64  `json:"width"`
	Opacity *float64 `json:"opacity,omitempty"`
}

// DrawingUpdate carries annotation strokes for a sheet page. Strokes are
// relayed live only; late joiners see a blank canvas.
type DrawingUpdate struct {
	SheetID    string        `json:"sheetId"`
	PageNumber int           `json:"pageNumber"`
	Paths      []DrawingPath `json:"paths"`
}

// PresentationSnapshot is the shared "what is on screen" value. An empty
// CurrentSheetID means nothing has been selected yet.
type PresentationSnapshot struct {
	CurrentSheetID string `json:"currentSheetId"`
	CurrentPage    int    `json:"currentPage"`
}

// RosterEntry is one row of the admin roster (the "users" event).
type RosterEntry struct {
	ID          string    `json:"id"`
	Profile     Profile   `json:"profile"`
	ConnectedAt time.Time `json:"connectedAt"`
}
