package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsearch/config"
	"docsearch/internal/core/retriever"
	"docsearch/internal/core/upload"
)

func TestBuildChunks_Overlap(t *testing.T) {
	text := strings.Repeat("a", 10) + strings.Repeat("b", 10)
	chunks := BuildChunks([]Section{{Page: 2, Headers: []string{"H"}, Text: text}}, 3, 1)
	// 12 chars per chunk, 4 chars overlap
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != text[:12] || chunks[1].Content != text[8:] {
		t.Fatalf("unexpected chunks: %q %q", chunks[0].Content, chunks[1].Content)
	}
	if chunks[1].ChunkIndex != 1 || chunks[1].PageIndex != 2 || chunks[1].Headers[0] != "H" {
		t.Fatalf("unexpected metadata: %+v", chunks[1])
	}
}

func TestBuildChunks_SkipsBlankSections(t *testing.T) {
	chunks := BuildChunks([]Section{{Text: "  "}, {Text: "x"}}, 0, -1)
	if len(chunks) != 1 || chunks[0].ChunkIndex != 0 {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestSplitMarkdown(t *testing.T) {
	md := "intro\n# Guide\nwelcome\n## Install\nrun it\n```\n# not a heading\n```\n### Deep\nmore\n## Usage\nask\n"
	sections := SplitMarkdown(md)
	want := [][]string{
		{},
		{"Guide"},
		{"Guide", "Install"},
		{"Guide", "Install", "Deep"},
		{"Guide", "Usage"},
	}
	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(sections), sections)
	}
	for i, w := range want {
		if strings.Join(sections[i].Headers, "/") != strings.Join(w, "/") {
			t.Fatalf("section %d headers = %v, want %v", i, sections[i].Headers, w)
		}
	}
	if !strings.Contains(sections[2].Text, "# not a heading") {
		t.Fatalf("fenced code must stay in the body: %q", sections[2].Text)
	}
}

func TestExtract(t *testing.T) {
	if _, err := Extract("a.docx", []byte("x")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Extract("a.md", []byte("\uFEFF  \n")); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if _, err := Extract("a.pdf", []byte("garbage")); err == nil {
		t.Fatalf("expected pdf error")
	}
	sections, err := Extract("a.md", []byte("# T\nbody"))
	if err != nil || len(sections) != 1 || sections[0].Text != "body\n" {
		t.Fatalf("sections %+v err %v", sections, err)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("héllo wörld", 5); got != "héllo..." {
		t.Fatalf("Preview = %q", got)
	}
	if got := Preview("short", 10); got != "short" {
		t.Fatalf("Preview = %q", got)
	}
}

func TestLocalStore_ContentAddressed(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	p1, err := store.Save(context.Background(), "Guide.MD", []byte("same"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	p2, _ := store.Save(context.Background(), "copy.md", []byte("same"))
	if p1 != p2 || filepath.Ext(p1) != ".md" {
		t.Fatalf("paths %q %q", p1, p2)
	}
	if b, _ := os.ReadFile(p1); string(b) != "same" {
		t.Fatalf("content %q", b)
	}
}

func TestService_Ingest(t *testing.T) {
	index := retriever.NewIndex()
	svc := NewService(index, NewLocalStore(t.TempDir()), config.Default().Ingest)

	resp, err := svc.Ingest(context.Background(), "guide.md", []byte("# Install\nDownload the installer."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != upload.StatusSuccess || resp.ChunksCreated != 1 || resp.DocumentID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	hits := index.Search("installer", retriever.Filters{})
	if len(hits) != 1 || hits[0].DocumentID != resp.DocumentID || hits[0].Headers[0] != "Install" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	empty, err := svc.Ingest(context.Background(), "empty.md", []byte("   "))
	if err != nil || empty.Status != upload.StatusFailure {
		t.Fatalf("expected failure status, got %+v %v", empty, err)
	}

	if _, err := svc.Ingest(context.Background(), "x.exe", []byte("MZ")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
