package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTextDocumentLineAt(t *testing.T) {
	doc := NewTextDocument("#if($a)\r\n    body\n\t \n")

	if doc.LineCount() != 4 {
		t.Fatalf("expected 4 lines, got %d", doc.LineCount())
	}

	want := []Line{
		{Number: 0, Text: "#if($a)", FirstNonWhitespace: 0},
		{Number: 1, Text: "    body", FirstNonWhitespace: 4},
		{Number: 2, Text: "\t ", FirstNonWhitespace: 2, IsEmptyOrWhitespace: true},
		{Number: 3, Text: "", FirstNonWhitespace: 0, IsEmptyOrWhitespace: true},
	}
	for i, w := range want {
		if diff := cmp.Diff(w, doc.LineAt(i)); diff != "" {
			t.Errorf("line %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestNewTextDocument_LineEndings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"lf", "a\nb\n", []string{"a", "b", ""}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"lone cr", "a\rb\rc", []string{"a", "b", "c"}},
		{"cr then lf is one break", "a\r\n\nb", []string{"a", "", "b"}},
		{"lf then cr is two breaks", "a\n\rb", []string{"a", "", "b"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewTextDocument(tt.content)
			got := make([]string, doc.LineCount())
			for i := range got {
				got[i] = doc.LineAt(i).Text
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextDocumentLineAt_OutOfRange(t *testing.T) {
	doc := NewTextDocument("one line")

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range line")
		}
	}()
	doc.LineAt(1)
}
