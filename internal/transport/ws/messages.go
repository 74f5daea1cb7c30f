package ws

import (
	"encoding/json"
	"fmt"

	"ragdoll-sandbox/internal/game"
)

// Envelope is the inbound wire frame. Every client message carries a type
// plus the fields that type needs.
type Envelope struct {
	Type  string `json:"type"`
	Phase string `json:"phase,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Asset string `json:"asset,omitempty"`

	ClientTime float64 `json:"client_time,omitempty"`
}

// DecodeEvent maps a wire envelope onto a simulation input event.
// Ping is handled at the connection level and never reaches here.
func DecodeEvent(data []byte) (any, error) {
	var env Envelope
	if err := decode(data, &env); err != nil {
		return nil, err
	}
	return env.Event()
}

func decode(data []byte, env *Envelope) error {
	if err := json.Unmarshal(data, env); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}
	return nil
}

// Event converts the envelope to the typed event the input queue expects.
func (e *Envelope) Event() (any, error) {
	switch e.Type {
	case "pointer":
		phase, err := pointerPhase(e.Phase)
		if err != nil {
			return nil, err
		}
		return game.PointerEvent{Phase: phase, X: e.X, Y: e.Y}, nil
	case "resize":
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("resize with non-positive viewport %gx%g", e.Width, e.Height)
		}
		return game.ResizeEvent{Width: e.Width, Height: e.Height}, nil
	case "spawn":
		return game.SpawnEvent{Asset: e.Asset}, nil
	case "drop":
		return game.DropEvent{Asset: e.Asset, X: e.X, Y: e.Y}, nil
	case "trash_click":
		return game.TrashClickEvent{}, nil
	case "clear":
		return game.ClearEvent{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", e.Type)
	}
}

func pointerPhase(s string) (game.PointerPhase, error) {
	switch s {
	case "down":
		return game.PointerDown, nil
	case "move":
		return game.PointerMove, nil
	case "up":
		return game.PointerUp, nil
	default:
		return 0, fmt.Errorf("unknown pointer phase %q", s)
	}
}

// Outbound message shapes. All floats pass through safeValue before
// marshaling so a stray NaN never breaks the client's JSON parser.

type createMessage struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	ObjectType string  `json:"object_type"`
	Asset      string  `json:"asset,omitempty"`
	Color      string  `json:"color,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Depth      float64 `json:"depth"`
	ServerTime float64 `json:"server_time"`
}

type updateEntry struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	QX float64 `json:"qx"`
	QY float64 `json:"qy"`
	QZ float64 `json:"qz"`
	QW float64 `json:"qw"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type updateMessage struct {
	Type       string        `json:"type"`
	ServerTime float64       `json:"server_time"`
	Objects    []updateEntry `json:"objects"`
}

type bonesMessage struct {
	Type  string                `json:"type"`
	ID    string                `json:"id"`
	Bones map[string][4]float64 `json:"bones"`
}

type removeMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type healthMessage struct {
	Type      string  `json:"type"`
	Current   float64 `json:"current"`
	Max       float64 `json:"max"`
	Delta     float64 `json:"delta"`
	IsDamage  bool    `json:"is_damage"`
	IsHealing bool    `json:"is_healing"`
}

type animationMessage struct {
	Type     string  `json:"type"`
	Clip     string  `json:"clip"`
	Duration float64 `json:"duration"`
}

type pongMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
	ServerTime float64 `json:"server_time"`
}
