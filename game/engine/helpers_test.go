package engine

import (
	"testing"
	"time"
)

type recordingSink struct {
	outcomes []Outcome
}

func (r *recordingSink) Record(o Outcome) error {
	r.outcomes = append(r.outcomes, o)
	return nil
}

type countingPersister struct {
	saves []*Snapshot
}

func (p *countingPersister) Save(s *Snapshot) error {
	p.saves = append(p.saves, s)
	return nil
}

type recordingPresenter struct {
	sources []Location
	targets []Location
	clears  int
	commits []Move
}

func (p *recordingPresenter) HighlightSource(loc Location) { p.sources = append(p.sources, loc) }
func (p *recordingPresenter) HighlightTarget(loc Location) { p.targets = append(p.targets, loc) }
func (p *recordingPresenter) ClearHighlights()              { p.clears++ }
func (p *recordingPresenter) MoveCommitted(m Move, ok bool) {
	if ok {
		p.commits = append(p.commits, m)
	}
}

func up(s Suit, v int) Card {
	return NewCard(s, v)
}

func down(s Suit, v int) Card {
	c := NewCard(s, v)
	c.FaceUp = false
	return c
}

func slot(s Suit, v int) *Card {
	c := NewCard(s, v)
	return &c
}

func fullFoundation(s Suit, upTo int) Pile {
	p := Pile{}
	for v := AceValue; v <= upTo; v++ {
		p = append(p, up(s, v))
	}
	return p
}

// stuckState has no legal move in any hint category
func stuckState() *GameState {
	gs := NewEmptyState()
	gs.Tableau[0] = Pile{up(Spades, 3)}
	gs.Tableau[1] = Pile{up(Spades, 5)}
	gs.Tableau[2] = Pile{up(Spades, 7)}
	gs.Tableau[3] = Pile{up(Spades, 9)}
	gs.Tableau[4] = Pile{up(Hearts, 3)}
	gs.Tableau[5] = Pile{up(Hearts, 5)}
	gs.Tableau[6] = Pile{up(Hearts, 7)}
	gs.Reserve[0] = slot(Diamonds, 3)
	gs.Reserve[1] = slot(Diamonds, 5)
	gs.Reserve[2] = slot(Diamonds, 7)
	return gs
}

// oneMoveFromStuck allows a single pile-to-reserve move that leads to stuckState-like play
func oneMoveFromStuck() *GameState {
	gs := stuckState()
	gs.Tableau[0] = Pile{up(Clubs, 9), up(Spades, 3)}
	gs.Reserve[2] = nil
	return gs
}

type testEngine struct {
	*GameEngine
	sink      *recordingSink
	persister *countingPersister
	presenter *recordingPresenter
}

func newTestEngine(t *testing.T, gs *GameState) *testEngine {
	t.Helper()
	eng, err := NewEngineFromState(DefaultProfile(), gs)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	te := &testEngine{
		GameEngine: eng,
		sink:       &recordingSink{},
		persister:  &countingPersister{},
		presenter:  &recordingPresenter{},
	}
	eng.SetHooks(Hooks{Persister: te.persister, Outcomes: te.sink, Presenter: te.presenter})
	eng.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })
	return te
}
