package overlay

import (
	"image/color"
	"math"
	"sync"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"

	"github.com/lumen-hal/lumen-go/pkg/display"
)

// GioCompositor creates overlay windows with Gio. Each surface runs its
// own event loop goroutine; alpha changes only invalidate the window.
type GioCompositor struct{}

var _ Compositor = (*GioCompositor)(nil)

// NewGioCompositor creates the production compositor.
func NewGioCompositor() *GioCompositor {
	return &GioCompositor{}
}

// CreateSurface opens an undecorated full-size window over the display.
func (c *GioCompositor) CreateSurface(info display.Info) (Surface, error) {
	s := &gioSurface{
		window: new(app.Window),
		done:   make(chan struct{}),
	}
	s.window.Option(
		app.Title("lumen-dim"),
		app.Decorated(false),
		app.Fullscreen.Option(),
	)
	if info.Frame.W > 0 && info.Frame.H > 0 {
		s.window.Option(app.Size(unit.Dp(info.Frame.W), unit.Dp(info.Frame.H)))
	}
	go s.loop()
	return s, nil
}

type gioSurface struct {
	window *app.Window

	mu    sync.Mutex
	alpha float64

	closeOnce sync.Once
	done      chan struct{}
}

func (s *gioSurface) SetAlpha(alpha float64) {
	s.mu.Lock()
	s.alpha = math.Min(math.Max(alpha, 0), 1)
	s.mu.Unlock()
	s.window.Invalidate()
}

func (s *gioSurface) SetFrame(frame display.Rect) {
	if frame.W > 0 && frame.H > 0 {
		s.window.Option(app.Size(unit.Dp(frame.W), unit.Dp(frame.H)))
	}
	s.window.Invalidate()
}

func (s *gioSurface) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.window.Perform(system.ActionClose)
	})
	return nil
}

// loop paints the translucent black layer until the window is destroyed.
func (s *gioSurface) loop() {
	var ops op.Ops
	for {
		switch e := s.window.Event().(type) {
		case app.DestroyEvent:
			return
		case app.FrameEvent:
			select {
			case <-s.done:
				return
			default:
			}

			s.mu.Lock()
			alpha := s.alpha
			s.mu.Unlock()

			gtx := app.NewContext(&ops, e)
			paint.ColorOp{Color: color.NRGBA{A: uint8(math.Round(alpha * 255))}}.Add(gtx.Ops)
			paint.PaintOp{}.Add(gtx.Ops)
			e.Frame(gtx.Ops)
		}
	}
}
