package engine

// FindMove returns the first legal move in hint priority order, or nil:
//  1. reserve to foundation
//  2. tableau top to foundation
//  3. reserve to tableau
//  4. tableau to tableau from any face-up card
//  5. tableau top to an empty reserve slot, from piles with more than one card
func (gs *GameState) FindMove() *Move {
	for _, find := range []func() *Move{
		gs.findReserveToFoundation,
		gs.findTopToFoundation,
		gs.findReserveToTableau,
		gs.findTableauToTableau,
		gs.findTopToReserve,
	} {
		if m := find(); m != nil {
			return m
		}
	}
	return nil
}

// HasAnyLegalMove reports whether FindMove has a candidate
func (gs *GameState) HasAnyLegalMove() bool {
	return gs.FindMove() != nil
}

func (gs *GameState) findReserveToFoundation() *Move {
	for i, c := range gs.Reserve {
		if c == nil {
			continue
		}
		for f, fp := range gs.Foundations {
			if CanBuildOnFoundation(*c, fp) {
				return &Move{
					Kind:     MoveToFoundation,
					From:     Location{Kind: LocReserve, Index: i},
					To:       Location{Kind: LocFoundation, Index: f},
					Category: 1,
				}
			}
		}
	}
	return nil
}

func (gs *GameState) findTopToFoundation() *Move {
	for i, p := range gs.Tableau {
		top, ok := p.Top()
		if !ok {
			continue
		}
		for f, fp := range gs.Foundations {
			if CanBuildOnFoundation(top, fp) {
				return &Move{
					Kind:     MoveToFoundation,
					From:     Location{Kind: LocTableau, Index: i, CardIndex: len(p) - 1},
					To:       Location{Kind: LocFoundation, Index: f},
					Category: 2,
				}
			}
		}
	}
	return nil
}

func (gs *GameState) findReserveToTableau() *Move {
	for i, c := range gs.Reserve {
		if c == nil {
			continue
		}
		for t, tp := range gs.Tableau {
			if CanPlaceOnTableau(*c, tp) {
				return &Move{
					Kind:     MoveReserveToPile,
					From:     Location{Kind: LocReserve, Index: i},
					To:       Location{Kind: LocTableau, Index: t, CardIndex: len(tp)},
					Category: 3,
				}
			}
		}
	}
	return nil
}

// findTableauToTableau scans every face-up card. A king goes to an empty pile
// only when it sits above other cards; moving a king that is already the base
// of its pile reveals nothing.
func (gs *GameState) findTableauToTableau() *Move {
	for i, p := range gs.Tableau {
		for j, c := range p {
			if !c.FaceUp {
				continue
			}
			for t, tp := range gs.Tableau {
				if t == i {
					continue
				}
				top, ok := tp.Top()
				if !ok {
					if !c.IsKing() || j == 0 {
						continue
					}
				} else if !CanBuildOnTableau(c, top) {
					continue
				}
				return &Move{
					Kind:     MovePileToPile,
					From:     Location{Kind: LocTableau, Index: i, CardIndex: j},
					To:       Location{Kind: LocTableau, Index: t, CardIndex: len(tp)},
					Category: 4,
				}
			}
		}
	}
	return nil
}

func (gs *GameState) findTopToReserve() *Move {
	for h, slot := range gs.Reserve {
		if slot != nil {
			continue
		}
		for i, p := range gs.Tableau {
			if len(p) > 1 {
				return &Move{
					Kind:     MovePileToReserve,
					From:     Location{Kind: LocTableau, Index: i, CardIndex: len(p) - 1},
					To:       Location{Kind: LocReserve, Index: h},
					Category: 5,
				}
			}
		}
	}
	return nil
}

// Hint finds a suggested move and asks the presenter to highlight it
func (e *GameEngine) Hint() *Move {
	e.clearHighlights()
	m := e.state.FindMove()
	if m != nil && e.hooks.Presenter != nil {
		e.hooks.Presenter.HighlightSource(m.From)
		e.hooks.Presenter.HighlightTarget(m.To)
	}
	return m
}

// Apply executes a move previously returned by FindMove or Hint
func (e *GameEngine) Apply(m Move) error {
	return e.MoveTo(m.From, m.To)
}

// AutoPlay repeatedly sends reserve cards, then tableau tops, to the
// foundations until nothing moves or the profile's pass limit is reached.
// It returns the number of cards moved.
func (e *GameEngine) AutoPlay() int {
	e.clearHighlights()
	limit := e.profile.AutoPlayPasses
	if limit <= 0 || limit > MaxAutoPlayPasses {
		limit = MaxAutoPlayPasses
	}

	moved := 0
	for pass := 0; pass < limit; pass++ {
		if !e.autoPlayStep() {
			break
		}
		moved++
	}
	if moved > 0 {
		e.selection = nil
	}
	e.CheckState()
	return moved
}

func (e *GameEngine) autoPlayStep() bool {
	for h, c := range e.state.Reserve {
		if c == nil {
			continue
		}
		if _, err := e.toAnyFoundation(Location{Kind: LocReserve, Index: h}); err == nil {
			return true
		}
	}
	for t, p := range e.state.Tableau {
		if len(p) == 0 {
			continue
		}
		if _, err := e.toAnyFoundation(Location{Kind: LocTableau, Index: t, CardIndex: len(p) - 1}); err == nil {
			return true
		}
	}
	return false
}
