package websocket

import "github.com/wricardo/reserve-solitaire/game/engine"

// sessionPresenter forwards engine presentation calls to a session's clients
type sessionPresenter struct {
	hub       *Hub
	sessionID string
}

// Presenter returns an engine.Presenter that broadcasts hint, clear_hints
// and move events to the clients of one session
func (h *Hub) Presenter(sessionID string) engine.Presenter {
	return &sessionPresenter{hub: h, sessionID: sessionID}
}

func (p *sessionPresenter) HighlightSource(loc engine.Location) {
	p.hub.BroadcastEvent(p.sessionID, EventHint, Highlight{Role: "source", Location: loc})
}

func (p *sessionPresenter) HighlightTarget(loc engine.Location) {
	p.hub.BroadcastEvent(p.sessionID, EventHint, Highlight{Role: "target", Location: loc})
}

func (p *sessionPresenter) ClearHighlights() {
	p.hub.BroadcastEvent(p.sessionID, EventClearHints, nil)
}

func (p *sessionPresenter) MoveCommitted(move engine.Move, ok bool) {
	p.hub.BroadcastEvent(p.sessionID, EventMove, MoveNotice{Move: move, OK: ok})
}
