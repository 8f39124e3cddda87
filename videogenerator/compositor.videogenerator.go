package videogenerator

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"

	"musicgraph/animation"
	"musicgraph/logger"
	"musicgraph/scene"
	"musicgraph/theme"
)

// Compositor turns the frame store into images on top of the base canvas.
type Compositor struct {
	Scene  *scene.Scene
	Theme  *theme.Theme
	Frames *animation.Frames
	// Workers bounds concurrent frames. Zero uses one per CPU.
	Workers int
	// Progress, when set, is called from worker goroutines.
	Progress ProgressFunc

	renderer *Renderer
	layers   []*animation.Layer
}

// NewCompositor returns a compositor for frames drawn on sc.
func NewCompositor(sc *scene.Scene, th *theme.Theme, frames *animation.Frames) *Compositor {
	return &Compositor{
		Scene:    sc,
		Theme:    th,
		Frames:   frames,
		renderer: NewRenderer(th, sc.Offset),
		layers:   frames.Layers(),
	}
}

// Count returns the number of frames to render, capped by debug.max_frames.
func (c *Compositor) Count() int {
	n := c.Frames.Len()
	if limit := c.Theme.DebugMaxFrames(); limit > 0 {
		n = min(n, limit)
	}
	return n
}

// Render returns frame i as a new image.
func (c *Compositor) Render(i int) *image.RGBA {
	return c.RenderInto(image.NewRGBA(c.Scene.Bounds()), i)
}

// RenderInto draws frame i into dst, which must have the scene bounds.
// Layers are applied in stacking order, each on the result of the previous.
func (c *Compositor) RenderInto(dst *image.RGBA, i int) *image.RGBA {
	copy(dst.Pix, c.Scene.Base.Pix)
	canvas := dst
	for _, l := range c.layers {
		if a := l.At(i); !a.Empty() {
			canvas = c.renderer.Apply(canvas, a)
		}
	}
	return canvas
}

func (c *Compositor) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// WriteFrames renders every frame into dir as FramePattern files. The
// first failure stops new frames from starting and is returned once the
// running ones finish.
func (c *Compositor) WriteFrames(ctx context.Context, dir string) error {
	maxWorkers := c.workers()
	sem := make(chan struct{}, maxWorkers)
	canvases := make(chan *image.RGBA, maxWorkers)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	var failed atomic.Bool
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			failed.Store(true)
		})
	}

	totalFrames := c.Count()
	reportEvery := max(1, c.Theme.FrameRate()*progressEvery)
	var finishedFrames atomic.Uint64
	startTime := time.Now()

	for i := 0; i < maxWorkers; i++ {
		canvases <- image.NewRGBA(c.Scene.Bounds())
	}

	for i := 0; i < totalFrames && !failed.Load(); i++ {
		if err := ctx.Err(); err != nil {
			fail(err)
			break
		}
		select {
		case <-ctx.Done():
			fail(ctx.Err())
			continue
		case sem <- struct{}{}:
		}
		canvas := <-canvases
		wg.Add(1)
		go func(canvas *image.RGBA, i int) {
			defer wg.Done()
			defer func() {
				<-sem
				canvases <- canvas
			}()
			if failed.Load() {
				return
			}
			img := c.RenderInto(canvas, i)
			path := filepath.Join(dir, fmt.Sprintf(FramePattern, i))
			if err := gg.SavePNG(path, img); err != nil {
				fail(fmt.Errorf("writing frame %d: %w", i, err))
				return
			}
			f := int(finishedFrames.Add(1))
			if f%reportEvery == 0 || f == totalFrames {
				avg := time.Since(startTime) / time.Duration(f)
				logger.Logger().Info(fmt.Sprintf("Finished frames: %d/%d\tavg time per frame: %.4f", f, totalFrames, avg.Seconds()))
				if c.Progress != nil {
					c.Progress(f, totalFrames, avg)
				}
			}
		}(canvas, i)
	}

	wg.Wait()
	return firstErr
}
