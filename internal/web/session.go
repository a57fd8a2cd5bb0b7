package web

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/cjeanneret/TurnGo/internal/logic/worker"
)

// Session records the image handles captured since the last reset, so
// the export endpoint can fan them out to the export pool.
type Session struct {
	mu      sync.Mutex
	handles []worker.ImageHandle
}

func NewSession() *Session {
	return &Session{}
}

// Add records a captured handle.
func (s *Session) Add(h worker.ImageHandle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

// Handles returns a copy of all recorded handles.
func (s *Session) Handles() []worker.ImageHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]worker.ImageHandle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Reset clears the session.
func (s *Session) Reset() {
	s.mu.Lock()
	s.handles = nil
	s.mu.Unlock()
}

// PreviewStore keeps encoded thumbnails in memory, keyed by sequence
// number, for the /previews endpoint.
type PreviewStore struct {
	mu     sync.RWMutex
	thumbs map[uint32][]byte
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{thumbs: make(map[uint32][]byte)}
}

// Put encodes and stores a thumbnail.
func (p *PreviewStore) Put(seq uint32, img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("encode preview seq=%d: %w", seq, err)
	}
	p.mu.Lock()
	p.thumbs[seq] = buf.Bytes()
	p.mu.Unlock()
	return nil
}

// Get returns the encoded thumbnail for a sequence number.
func (p *PreviewStore) Get(seq uint32) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.thumbs[seq]
	return data, ok
}
