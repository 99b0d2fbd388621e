package artifacts

import (
	"io"
	"os"
	"testing"

	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	return NewStore(h, nil)
}

func TestStore_PutAndOpen(t *testing.T) {
	s := testStore(t)

	data := []byte("epub bytes")
	a, err := s.Put("job-1", types.ArtifactEPUB, "book.epub", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if a.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes = %d, want %d", a.SizeBytes, len(data))
	}
	if a.Kind != types.ArtifactEPUB {
		t.Errorf("Kind = %q", a.Kind)
	}

	f, err := s.Open(a)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", got, data)
	}
}

func TestStore_RejectsPathTraversal(t *testing.T) {
	s := testStore(t)

	if _, err := s.Put("job-1", types.ArtifactDOCX, "../escape.docx", []byte("x")); err == nil {
		t.Error("Put() with traversal filename succeeded, want error")
	}

	a := types.Artifact{JobID: "job-1", Path: "/etc/passwd"}
	if _, err := s.Open(a); err == nil {
		t.Error("Open() outside exports dir succeeded, want error")
	}
}

func TestStore_List(t *testing.T) {
	s := testStore(t)

	names, err := s.List("job-1")
	if err != nil {
		t.Fatalf("List() on missing dir error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	s.Put("job-1", types.ArtifactEPUB, "book.epub", []byte("a"))
	s.Put("job-1", types.ArtifactDOCX, "book.docx", []byte("b"))

	names, err = s.List("job-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 {
		t.Errorf("List() = %v, want 2 entries", names)
	}
}

func TestStore_Delete(t *testing.T) {
	s := testStore(t)

	a, err := s.Put("job-1", types.ArtifactKDP, "metadata.yaml", []byte("title: x"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete("job-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Errorf("artifact still exists after Delete: %v", err)
	}

	// Deleting an already clean job is a no-op.
	if err := s.Delete("job-1"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}
