package parser

import (
	"errors"

	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

// ErrCancelled is returned when the canceller aborts a scan
var ErrCancelled = errors.New("parser: scan cancelled")

// Scanner finds Velocity directive blocks line by line
type Scanner struct{}

// NewScanner creates a new scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// scanState holds the open-block stack and the regions closed so far.
type scanState struct {
	open      []*types.Region
	completed []*types.Region
}

// top returns the innermost open region, or nil
func (st *scanState) top() *types.Region {
	if len(st.open) == 0 {
		return nil
	}
	return st.open[len(st.open)-1]
}

func (st *scanState) push(kind types.Kind, line int) {
	st.open = append(st.open, &types.Region{Kind: kind, StartLine: line})
}

// closeTop ends the innermost region on the line before lineNum and moves it to completed.
func (st *scanState) closeTop(lineNum int) {
	r := st.top()
	r.Close(lineNum)
	st.open = st.open[:len(st.open)-1]
	st.completed = append(st.completed, r)
}

// apply runs one directive through the block transitions
func (st *scanState) apply(kind types.Kind, lineNum int) {
	switch {
	case kind.Opens():
		st.push(kind, lineNum)

	case kind.Branches():
		// An else/elseif ends the preceding if/elseif branch and starts its own.
		// Without such a branch it still opens a region.
		if top := st.top(); top != nil && !top.Closed && (top.Kind == types.KindIf || top.Kind == types.KindElseIf) {
			st.closeTop(lineNum)
		}
		st.push(kind, lineNum)

	case kind == types.KindEnd:
		// Unmatched #end is ignored
		if top := st.top(); top != nil && !top.Closed {
			st.closeTop(lineNum)
		}
	}
}

// scanLines runs the core line-by-line loop. Regions still open at the end are dropped.
func (s *Scanner) scanLines(doc Lines, cancel Canceller) (*scanState, error) {
	state := &scanState{}

	for lineNum := 0; lineNum < doc.LineCount(); lineNum++ {
		if cancel != nil && cancel.Cancelled() {
			return nil, ErrCancelled
		}

		for _, kind := range directivesInLine(doc.LineAt(lineNum)) {
			state.apply(kind, lineNum)
		}
	}

	return state, nil
}

// Regions returns every closed region in the order it was closed, including
// single-line ones.
func (s *Scanner) Regions(doc Lines, cancel Canceller) ([]*types.Region, error) {
	state, err := s.scanLines(doc, cancel)
	if err != nil {
		return nil, err
	}
	return state.completed, nil
}
