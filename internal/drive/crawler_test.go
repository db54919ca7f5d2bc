package drive

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// fakeSource serves a fixed tree with configurable page sizes so pagination
// paths are exercised without a real backend.
type fakeSource struct {
	children map[string][]models.RemoteItem
	pageSize int
	calls    int
	failOn   string
}

func (f *fakeSource) ListChildren(_ context.Context, folderID, pageToken string) ([]models.RemoteItem, string, error) {
	f.calls++
	if f.failOn != "" && folderID == f.failOn {
		return nil, "", errors.New("listing failed")
	}

	all := f.children[folderID]
	start := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "%d", &start)
	}

	end := len(all)
	next := ""
	if f.pageSize > 0 && start+f.pageSize < len(all) {
		end = start + f.pageSize
		next = fmt.Sprintf("%d", end)
	}
	return all[start:end], next, nil
}

func (f *fakeSource) Download(context.Context, models.RemoteItem) ([]byte, string, error) {
	return nil, "", errors.New("not implemented")
}

func file(id, name string) models.RemoteItem {
	return models.RemoteItem{ID: id, Name: name, Kind: models.ItemKindFile, MimeType: "text/plain"}
}

func folder(id, name string) models.RemoteItem {
	return models.RemoteItem{ID: id, Name: name, Kind: models.ItemKindFolder}
}

func TestListFilesNestedTree(t *testing.T) {
	src := &fakeSource{children: map[string][]models.RemoteItem{
		"root": {file("f1", "a.txt"), folder("sub", "docs")},
		"sub":  {file("f2", "b.pdf")},
	}}

	files, err := NewCrawler(src).ListFiles(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "a.txt" || files[1].Name != "b.pdf" {
		t.Errorf("unexpected files: %+v", files)
	}
	for _, f := range files {
		if f.Kind != models.ItemKindFile {
			t.Errorf("folder leaked into result: %+v", f)
		}
	}
}

func TestListFilesConsumesAllPages(t *testing.T) {
	var items []models.RemoteItem
	for i := 0; i < 25; i++ {
		items = append(items, file(fmt.Sprintf("f%d", i), fmt.Sprintf("file-%d.txt", i)))
	}
	src := &fakeSource{
		children: map[string][]models.RemoteItem{"root": items},
		pageSize: 10,
	}

	files, err := NewCrawler(src).ListFiles(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 25 {
		t.Errorf("got %d files across pages, want 25", len(files))
	}
	if src.calls != 3 {
		t.Errorf("got %d list calls, want 3", src.calls)
	}
}

func TestListFilesDeepNestingWithPagination(t *testing.T) {
	src := &fakeSource{
		children: map[string][]models.RemoteItem{
			"root": {folder("l1", "one"), file("r1", "root.txt")},
			"l1":   {folder("l2", "two"), file("d1", "one.txt"), file("d2", "one-b.txt")},
			"l2":   {file("d3", "two.txt")},
		},
		pageSize: 1,
	}

	files, err := NewCrawler(src).ListFiles(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("got %d files, want 4: %+v", len(files), files)
	}
}

func TestListFilesEmptyFolder(t *testing.T) {
	src := &fakeSource{children: map[string][]models.RemoteItem{}}
	files, err := NewCrawler(src).ListFiles(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files from empty folder, want 0", len(files))
	}
}

func TestListFilesPropagatesListingError(t *testing.T) {
	src := &fakeSource{
		children: map[string][]models.RemoteItem{
			"root": {folder("bad", "broken")},
		},
		failOn: "bad",
	}
	if _, err := NewCrawler(src).ListFiles(context.Background(), "root"); err == nil {
		t.Fatal("expected error from failing subfolder listing")
	}
}
