package pipeline

import (
	"fmt"
	"image"
	_ "image/gif"  // preview decoding
	_ "image/jpeg" // preview decoding
	_ "image/png"  // preview decoding
	"os"
	"sync"

	"github.com/nfnt/resize"

	"github.com/cjeanneret/TurnGo/internal/debug"
	"github.com/cjeanneret/TurnGo/internal/logic/worker"
)

// Preview is a lightweight decoded rendition of a captured original.
type Preview struct {
	Seq        uint32
	SourcePath string
	Thumb      image.Image
}

// RunPreviewPool consumes capture handles until the channel closes,
// decoding and downscaling each original concurrently. Previews are
// best-effort: a failed decode is logged and dropped, never fatal.
// The previews channel is closed once all in-flight work finishes.
func RunPreviewPool(handles <-chan worker.ImageHandle, previews chan<- Preview, maxWidth, maxHeight int) {
	var wg sync.WaitGroup
	for handle := range handles {
		wg.Add(1)
		go func(h worker.ImageHandle) {
			defer wg.Done()
			preview, err := loadPreview(h, maxWidth, maxHeight)
			if err != nil {
				debug.Error(fmt.Errorf("preview seq=%d: %w", h.Seq, err))
				return
			}
			previews <- preview
		}(handle)
	}
	wg.Wait()
	close(previews)
}

func loadPreview(h worker.ImageHandle, maxWidth, maxHeight int) (Preview, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return Preview{}, fmt.Errorf("open %s: %w", h.Path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return Preview{}, fmt.Errorf("decode %s: %w", h.Path, err)
	}
	debug.Verbose("decoded %s (%s) for preview seq=%d", h.Path, format, h.Seq)

	thumb := resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
	return Preview{Seq: h.Seq, SourcePath: h.Path, Thumb: thumb}, nil
}
