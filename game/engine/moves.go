package engine

// The executor methods below validate, then snapshot into history before
// touching the state. A rejected move leaves state and history untouched.

func (e *GameEngine) commit() {
	e.history.Commit(e.state)
	e.state.MoveCount++
}

// flipTop turns the exposed card of a tableau pile face up
func (e *GameEngine) flipTop(i int) {
	p := e.state.Tableau[i]
	if len(p) > 0 && !p[len(p)-1].FaceUp {
		p[len(p)-1].FaceUp = true
	}
}

func (e *GameEngine) pileToPile(src, cardIndex, dst int) error {
	if !e.validTableau(src) || !e.validTableau(dst) {
		return invalid(MovePileToPile, "pile index out of range")
	}
	if src == dst {
		return invalid(MovePileToPile, "source and destination are the same pile")
	}
	pile := e.state.Tableau[src]
	if cardIndex < 0 || cardIndex >= len(pile) {
		return invalid(MovePileToPile, "no cards at index %d of pile %d", cardIndex, src)
	}
	lead := pile[cardIndex]
	if !lead.FaceUp {
		return invalid(MovePileToPile, "card %d of pile %d is face down", cardIndex, src)
	}
	if !CanPlaceOnTableau(lead, e.state.Tableau[dst]) {
		return invalid(MovePileToPile, "%s cannot be placed on pile %d", lead, dst)
	}

	e.commit()
	run := append(Pile{}, pile[cardIndex:]...)
	e.state.Tableau[src] = append(Pile{}, pile[:cardIndex]...)
	e.state.Tableau[dst] = append(e.state.Tableau[dst], run...)
	e.flipTop(src)
	e.persist()
	return nil
}

func (e *GameEngine) reserveToPile(slot, dst int) error {
	if !e.validReserve(slot) || !e.validTableau(dst) {
		return invalid(MoveReserveToPile, "index out of range")
	}
	card := e.state.Reserve[slot]
	if card == nil {
		return invalid(MoveReserveToPile, "reserve slot %d is empty", slot)
	}
	if !CanPlaceOnTableau(*card, e.state.Tableau[dst]) {
		return invalid(MoveReserveToPile, "%s cannot be placed on pile %d", card, dst)
	}

	e.commit()
	e.state.Reserve[slot] = nil
	e.state.Tableau[dst] = append(e.state.Tableau[dst], *card)
	e.persist()
	return nil
}

func (e *GameEngine) pileToReserve(src, slot int) error {
	if !e.validTableau(src) || !e.validReserve(slot) {
		return invalid(MovePileToReserve, "index out of range")
	}
	if e.state.Reserve[slot] != nil {
		return invalid(MovePileToReserve, "reserve slot %d is occupied", slot)
	}
	pile := e.state.Tableau[src]
	if len(pile) == 0 {
		return invalid(MovePileToReserve, "pile %d is empty", src)
	}

	e.commit()
	card := pile[len(pile)-1]
	card.FaceUp = true
	e.state.Tableau[src] = pile[:len(pile)-1]
	e.state.Reserve[slot] = &card
	e.flipTop(src)
	e.persist()
	return nil
}

// sourceCard resolves a movable single card. Tableau sources must name the
// current top card.
func (e *GameEngine) sourceCard(kind MoveKind, src Location) (Card, error) {
	switch src.Kind {
	case LocTableau:
		if !e.validTableau(src.Index) {
			return Card{}, invalid(kind, "pile index out of range")
		}
		pile := e.state.Tableau[src.Index]
		if len(pile) == 0 || src.CardIndex != len(pile)-1 {
			return Card{}, invalid(kind, "card %d is not the top of pile %d", src.CardIndex, src.Index)
		}
		return pile[src.CardIndex], nil
	case LocReserve:
		if !e.validReserve(src.Index) {
			return Card{}, invalid(kind, "reserve index out of range")
		}
		if e.state.Reserve[src.Index] == nil {
			return Card{}, invalid(kind, "reserve slot %d is empty", src.Index)
		}
		return *e.state.Reserve[src.Index], nil
	}
	return Card{}, invalid(kind, "unsupported source %q", src.Kind)
}

func (e *GameEngine) removeSource(src Location) {
	switch src.Kind {
	case LocTableau:
		p := e.state.Tableau[src.Index]
		e.state.Tableau[src.Index] = p[:len(p)-1]
		e.flipTop(src.Index)
	case LocReserve:
		e.state.Reserve[src.Index] = nil
	}
}

func (e *GameEngine) placeOnFoundation(src Location, card Card, f int) {
	e.commit()
	e.state.Foundations[f] = append(e.state.Foundations[f], card)
	e.removeSource(src)
	e.persist()
}

// toAnyFoundation commits to the lowest-index foundation that accepts the card
func (e *GameEngine) toAnyFoundation(src Location) (int, error) {
	card, err := e.sourceCard(MoveToFoundation, src)
	if err != nil {
		return -1, err
	}
	for f := range e.state.Foundations {
		if CanBuildOnFoundation(card, e.state.Foundations[f]) {
			e.placeOnFoundation(src, card, f)
			return f, nil
		}
	}
	return -1, invalid(MoveToFoundation, "no foundation accepts %s", card)
}

func (e *GameEngine) toFoundation(src Location, f int) error {
	if !e.validFoundation(f) {
		return invalid(MoveToFoundation, "foundation index out of range")
	}
	card, err := e.sourceCard(MoveToFoundation, src)
	if err != nil {
		return err
	}
	if !CanBuildOnFoundation(card, e.state.Foundations[f]) {
		return invalid(MoveToFoundation, "foundation %d does not accept %s", f, card)
	}
	e.placeOnFoundation(src, card, f)
	return nil
}

// autoDestination finds where a tapped card goes: the leftmost matching
// non-empty pile, or, for a king, the leftmost empty pile
func (e *GameEngine) autoDestination(card Card, src Location) int {
	skip := func(t int) bool {
		return src.Kind == LocTableau && t == src.Index
	}
	for t, pile := range e.state.Tableau {
		if skip(t) {
			continue
		}
		if top, ok := pile.Top(); ok && CanBuildOnTableau(card, top) {
			return t
		}
	}
	if card.IsKing() {
		for t, pile := range e.state.Tableau {
			if !skip(t) && len(pile) == 0 {
				return t
			}
		}
	}
	return -1
}

// autoMove tries a foundation first and then the tableau
func (e *GameEngine) autoMove(src Location) (Move, error) {
	if f, err := e.toAnyFoundation(src); err == nil {
		return Move{Kind: MoveToFoundation, From: src, To: Location{Kind: LocFoundation, Index: f}}, nil
	}

	card, err := e.sourceCard(MovePileToPile, src)
	if err != nil {
		return Move{}, err
	}
	dst := e.autoDestination(card, src)
	if dst < 0 {
		return Move{}, invalid(MovePileToPile, "no destination for %s", card)
	}

	to := Location{Kind: LocTableau, Index: dst, CardIndex: len(e.state.Tableau[dst])}
	if src.Kind == LocTableau {
		return Move{Kind: MovePileToPile, From: src, To: to}, e.pileToPile(src.Index, src.CardIndex, dst)
	}
	return Move{Kind: MoveReserveToPile, From: src, To: to}, e.reserveToPile(src.Index, dst)
}

// finishMove notifies the presenter and, on success, clears the selection and
// re-evaluates the terminal state
func (e *GameEngine) finishMove(m Move, err error) error {
	if e.hooks.Presenter != nil {
		e.hooks.Presenter.MoveCommitted(m, err == nil)
	}
	if err != nil {
		return err
	}
	e.lastMove = &m
	e.selection = nil
	e.CheckState()
	return nil
}

// MovePileToPile relocates the face-up run starting at cardIndex
func (e *GameEngine) MovePileToPile(src, cardIndex, dst int) error {
	m := Move{
		Kind: MovePileToPile,
		From: Location{Kind: LocTableau, Index: src, CardIndex: cardIndex},
		To:   Location{Kind: LocTableau, Index: dst},
	}
	return e.finishMove(m, e.pileToPile(src, cardIndex, dst))
}

// MoveReserveToPile plays a reserve card onto a tableau pile
func (e *GameEngine) MoveReserveToPile(slot, dst int) error {
	m := Move{
		Kind: MoveReserveToPile,
		From: Location{Kind: LocReserve, Index: slot},
		To:   Location{Kind: LocTableau, Index: dst},
	}
	return e.finishMove(m, e.reserveToPile(slot, dst))
}

// MovePileToReserve parks the top card of a pile in an empty reserve slot
func (e *GameEngine) MovePileToReserve(src, slot int) error {
	m := Move{
		Kind: MovePileToReserve,
		From: Location{Kind: LocTableau, Index: src},
		To:   Location{Kind: LocReserve, Index: slot},
	}
	if e.validTableau(src) {
		m.From.CardIndex = len(e.state.Tableau[src]) - 1
	}
	return e.finishMove(m, e.pileToReserve(src, slot))
}

// MoveToAnyFoundation sends a top or reserve card to the first accepting foundation
func (e *GameEngine) MoveToAnyFoundation(src Location) error {
	f, err := e.toAnyFoundation(src)
	return e.finishMove(Move{Kind: MoveToFoundation, From: src, To: Location{Kind: LocFoundation, Index: f}}, err)
}

// MoveToFoundation sends a top or reserve card to one specific foundation
func (e *GameEngine) MoveToFoundation(src Location, foundation int) error {
	m := Move{Kind: MoveToFoundation, From: src, To: Location{Kind: LocFoundation, Index: foundation}}
	return e.finishMove(m, e.toFoundation(src, foundation))
}

// AutoMove sends a card to its best destination
func (e *GameEngine) AutoMove(src Location) error {
	m, err := e.autoMove(src)
	if err != nil {
		m = Move{Kind: m.Kind, From: src}
	}
	return e.finishMove(m, err)
}

// MoveTo dispatches a source/target pair to the matching executor operation
func (e *GameEngine) MoveTo(from, to Location) error {
	switch to.Kind {
	case LocTableau:
		switch from.Kind {
		case LocTableau:
			return e.MovePileToPile(from.Index, from.CardIndex, to.Index)
		case LocReserve:
			return e.MoveReserveToPile(from.Index, to.Index)
		}
	case LocReserve:
		if from.Kind == LocTableau {
			if !e.validTableau(from.Index) || from.CardIndex != len(e.state.Tableau[from.Index])-1 {
				return e.finishMove(Move{Kind: MovePileToReserve, From: from, To: to},
					invalid(MovePileToReserve, "only the top card can go to the reserve"))
			}
			return e.MovePileToReserve(from.Index, to.Index)
		}
	case LocFoundation:
		return e.MoveToFoundation(from, to.Index)
	}
	return e.finishMove(Move{From: from, To: to}, invalid("", "unsupported move from %s to %s", from.Kind, to.Kind))
}

// Undo restores the most recent pre-move snapshot
func (e *GameEngine) Undo() bool {
	e.clearHighlights()
	prev, ok := e.history.Pop()
	if !ok {
		return false
	}
	e.state = prev
	e.state.UndoCount++
	e.selection = nil
	e.persist()
	return true
}
