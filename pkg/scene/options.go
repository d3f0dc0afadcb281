package scene

// Option configures a Scene during creation.
//
// Example:
//
//	s := scene.New(dev, scene.WithSize(800, 600), scene.WithPickRadius(4))
type Option func(*options)

type options struct {
	width, height int
	camera        Camera
	surface       Surface
	pickRadius    int
	selectBuffer  int
}

func defaultOptions() options {
	return options{
		width:        640,
		height:       480,
		camera:       DefaultCamera(),
		pickRadius:   3,
		selectBuffer: 4096,
	}
}

// WithSize sets the initial window size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithCamera sets the initial camera.
func WithCamera(c Camera) Option {
	return func(o *options) {
		o.camera = c
	}
}

// WithSurface sets the surface notified of redraw requests.
func WithSurface(s Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithPickRadius sets the half-size in pixels of the square Nearest picks
// in.
func WithPickRadius(r int) Option {
	return func(o *options) {
		o.pickRadius = r
	}
}

// WithSelectionBuffer sets the selection buffer capacity in words.
func WithSelectionBuffer(n int) Option {
	return func(o *options) {
		o.selectBuffer = n
	}
}
