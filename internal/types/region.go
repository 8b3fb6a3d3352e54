package types

// Kind categorizes Velocity block directives
type Kind int

const (
	KindMacro Kind = iota
	KindIf
	KindElseIf
	KindElse
	KindForeach
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindMacro:
		return "macro"
	case KindIf:
		return "if"
	case KindElseIf:
		return "elseif"
	case KindElse:
		return "else"
	case KindForeach:
		return "foreach"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its directive keyword
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind maps a normalized directive keyword to its Kind
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "macro":
		return KindMacro, true
	case "if":
		return KindIf, true
	case "elseif":
		return KindElseIf, true
	case "else":
		return KindElse, true
	case "foreach":
		return KindForeach, true
	case "end":
		return KindEnd, true
	}
	return 0, false
}

// Opens reports whether the directive starts a new block unconditionally
func (k Kind) Opens() bool {
	return k == KindMacro || k == KindIf || k == KindForeach
}

// Branches reports whether the directive continues an if chain
func (k Kind) Branches() bool {
	return k == KindElseIf || k == KindElse
}

// Region is one directive block, open or closed
type Region struct {
	Kind      Kind
	StartLine int // 0-indexed line of the opening directive
	EndLine   int // 0-indexed, valid only when Closed
	Closed    bool
}

// Close marks the region as ending on the line before closeLine
func (r *Region) Close(closeLine int) {
	r.EndLine = closeLine - 1
	r.Closed = true
}

// Foldable reports whether the region spans more than one line.
// A block closed on its own line ends before it starts and is not foldable.
func (r *Region) Foldable() bool {
	return r.Closed && r.EndLine > r.StartLine
}

// FoldingRange is an inclusive, 0-indexed line span the editor may collapse
type FoldingRange struct {
	StartLine int  `json:"startLine"`
	EndLine   int  `json:"endLine"`
	Kind      Kind `json:"kind"`
}
