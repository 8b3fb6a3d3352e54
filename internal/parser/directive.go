package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

var (
	// #if( #{if}( #elseif ( #else #{end} #foreach( #macro
	// Alternation order matters: elseif must win over else, and the
	// required paren keeps the if inside elseif from matching.
	// Whitespace between keyword and paren includes \v and Unicode spaces.
	directivePattern = regexp.MustCompile(`#\{?(macro|elseif` + space + `*\(|else|if` + space + `*\(|foreach` + space + `*\(|end)`)

	// Characters stripped from a match to leave the bare keyword
	directiveNoise = regexp.MustCompile(`[#{(]|` + space)
)

// space matches one whitespace character, Unicode line/paragraph separators and BOM included
const space = `[\s\v\p{Zs}\x{2028}\x{2029}\x{feff}]`

// lineComment starts a Velocity single-line comment
const lineComment = "##"

// Directives returns the block directives on a line in left-to-right order.
// Blank lines and line comments yield nothing.
func Directives(text string) []types.Kind {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if trimmed == "" || strings.HasPrefix(trimmed, lineComment) {
		return nil
	}
	return matchDirectives(trimmed)
}

// directivesInLine is Directives for a line whose blank/indent metadata is already known
func directivesInLine(l Line) []types.Kind {
	if l.IsEmptyOrWhitespace {
		return nil
	}
	trimmed := l.Text[l.FirstNonWhitespace:]
	if strings.HasPrefix(trimmed, lineComment) {
		return nil
	}
	return matchDirectives(trimmed)
}

func matchDirectives(s string) []types.Kind {
	matches := directivePattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}

	kinds := make([]types.Kind, 0, len(matches))
	for _, m := range matches {
		if kind, ok := types.ParseKind(directiveNoise.ReplaceAllString(m, "")); ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
