package web

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/cjeanneret/TurnGo/internal/logic/worker"
)

func TestSession_AddHandlesReset(t *testing.T) {
	s := NewSession()

	s.Add(worker.ImageHandle{Seq: 0, Path: "/tmp/a.jpg"})
	s.Add(worker.ImageHandle{Seq: 1, Path: "/tmp/b.jpg"})

	handles := s.Handles()
	if len(handles) != 2 || handles[0].Seq != 0 || handles[1].Seq != 1 {
		t.Errorf("handles = %+v", handles)
	}

	s.Reset()
	if got := s.Handles(); len(got) != 0 {
		t.Errorf("handles after reset = %+v", got)
	}
}

func TestSession_HandlesReturnsCopy(t *testing.T) {
	s := NewSession()
	s.Add(worker.ImageHandle{Seq: 0, Path: "/tmp/a.jpg"})

	handles := s.Handles()
	handles[0].Path = "mutated"

	if s.Handles()[0].Path != "/tmp/a.jpg" {
		t.Error("Handles() must return a copy")
	}
}

func TestPreviewStore_PutGet(t *testing.T) {
	store := NewPreviewStore()

	if _, ok := store.Get(5); ok {
		t.Error("empty store should not have seq 5")
	}

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := store.Put(5, img); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ok := store.Get(5)
	if !ok {
		t.Fatal("stored preview not found")
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("stored preview is not a JPEG: %v", err)
	}
}
