package parser

import (
	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

// FoldingRanges scans doc and returns the multi-line directive blocks, closed earliest first.
// A cancelled scan returns ErrCancelled and no ranges.
func (s *Scanner) FoldingRanges(doc Lines, cancel Canceller) ([]types.FoldingRange, error) {
	regions, err := s.Regions(doc, cancel)
	if err != nil {
		return nil, err
	}
	return foldable(regions), nil
}

// Parse is FoldingRanges over raw content without cancellation
func (s *Scanner) Parse(content []byte) []types.FoldingRange {
	ranges, _ := s.FoldingRanges(NewTextDocument(string(content)), nil)
	return ranges
}

func foldable(regions []*types.Region) []types.FoldingRange {
	ranges := make([]types.FoldingRange, 0, len(regions))
	for _, r := range regions {
		if !r.Foldable() {
			continue
		}
		ranges = append(ranges, types.FoldingRange{
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			Kind:      r.Kind,
		})
	}
	return ranges
}
