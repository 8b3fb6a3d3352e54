package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jarredhawkins/velocity-lsp/internal/parser"
	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

const layoutTemplate = `#macro(nav $items)
  <ul>
  #foreach($item in $items)
    <li>$item</li>
    <li>$item</li>
  #end
  </ul>
#end
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "layout.vm"), layoutTemplate)
	writeFile(t, filepath.Join(root, "mail", "welcome.VTL"), "#if($a)\n  x\n  y\n#end\n")
	writeFile(t, filepath.Join(root, "README.md"), "#if($a)\n  x\n  y\n#end\n")
	writeFile(t, filepath.Join(root, ".git", "hooks.vm"), layoutTemplate)
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "x.vm"), layoutTemplate)

	idx := New(root, parser.NewScanner(), nil)
	if err := idx.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantFiles := []string{
		filepath.Join(root, "layout.vm"),
		filepath.Join(root, "mail", "welcome.VTL"),
	}
	if diff := cmp.Diff(wantFiles, idx.Files()); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	ranges, ok := idx.RangesInFile(filepath.Join(root, "layout.vm"))
	if !ok {
		t.Fatal("layout.vm not indexed")
	}
	want := []types.FoldingRange{
		{StartLine: 2, EndLine: 4, Kind: types.KindForeach},
		{StartLine: 0, EndLine: 6, Kind: types.KindMacro},
	}
	if diff := cmp.Diff(want, ranges); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.vm"), layoutTemplate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := New(root, parser.NewScanner(), nil)
	if err := idx.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUpdateAndRemoveFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.vm")
	writeFile(t, path, "#if($a)\n  x\n  y\n#end\n")

	idx := New(root, parser.NewScanner(), nil)
	if err := idx.AddFile(path); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	writeFile(t, path, "#foreach($i in $l)\n  $i\n  $i\n  $i\n#end\n")
	if err := idx.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	ranges, ok := idx.RangesInFile(path)
	if !ok {
		t.Fatal("page.vm not indexed after update")
	}
	want := []types.FoldingRange{{StartLine: 0, EndLine: 3, Kind: types.KindForeach}}
	if diff := cmp.Diff(want, ranges); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}

	idx.RemoveFile(path)
	if _, ok := idx.RangesInFile(path); ok {
		t.Error("expected page.vm to be removed")
	}
	if idx.FileCount() != 0 {
		t.Errorf("expected 0 files, got %d", idx.FileCount())
	}
}

func TestRangesInFile_ChangedOnDisk(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.vm")
	writeFile(t, path, layoutTemplate)

	idx := New(root, parser.NewScanner(), nil)
	if err := idx.AddFile(path); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if _, ok := idx.RangesInFile(path); !ok {
		t.Fatal("expected cached ranges before the rewrite")
	}

	writeFile(t, path, "plain text\n")
	if ranges, ok := idx.RangesInFile(path); ok {
		t.Errorf("expected cache miss after rewrite, got %+v", ranges)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := idx.RangesInFile(path); ok {
		t.Error("expected cache miss for a deleted file")
	}
}

func TestAddFile_Missing(t *testing.T) {
	idx := New(t.TempDir(), parser.NewScanner(), nil)
	if err := idx.AddFile("/does/not/exist.vm"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsTemplateFile(t *testing.T) {
	idx := New("/test", parser.NewScanner(), []string{"vm", " .HTML "})

	tests := []struct {
		path string
		want bool
	}{
		{"/test/a.vm", true},
		{"/test/a.VM", true},
		{"/test/page.html", true},
		{"/test/a.vtl", false},
		{"/test/a.rb", false},
		{"/test/vm", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := idx.IsTemplateFile(tt.path); got != tt.want {
				t.Errorf("IsTemplateFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
