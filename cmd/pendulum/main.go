// Command pendulum animates a damped simple pendulum integrated with the
// adaptive Dormand-Prince 8(5,3) engine, in the style of the teacher's
// examples/simplePendulum demo.
package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/colornames"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
	"github.com/soypat/ivpflow/ivp/erk"
	"github.com/soypat/ivpflow/ivpcfg"
)

// Declare simulation constants: gravity, pendulum length, linear damping.
const g, l, damping float64 = 9.8, 1.0, 0.05

var sample []float64 // theta(t) sampled at a fixed cadence for playback

func main() {
	cfgPath := flag.String("config", "", "optional ivpcfg YAML file")
	flag.Parse()

	cfg := ivpcfg.Default()
	if *cfgPath != "" {
		loaded, err := ivpcfg.LoadFile(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	f := func(t field.Real, y, dy []field.Real) {
		dy[0] = y[1]
		dy[1] = field.Real(-g/l*math.Sin(float64(y[0]))) - field.Real(damping)*y[1]
	}
	prob, err := ivp.NewProblem[field.Real](2, f)
	if err != nil {
		panic(err)
	}
	tol := ivp.NewScalarTolerances(cfg.Tolerance.Abs, cfg.Tolerance.Rel, 2)
	ctrl := ivp.NewController[field.Real](tol, cfg.Step.Min, cfg.Step.Max)
	logger := ivp.NewLogger(nil)
	logger.Verbose = cfg.Log.Verbose

	engine := &erk.Engine[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Tableau:    erk.DormandPrince853[field.Real](),
		Controller: ctrl,
		Logger:     logger,
		MaxEvals:   1_000_000,
	}

	const tEnd, dt = 20.0, 1.0 / 60.0
	nextSample := 0.0
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		for nextSample <= ip.CurrentTime().Real() {
			out := make([]field.Real, 2)
			ip.InterpolatedState(field.Real(nextSample), out)
			sample = append(sample, out[0].Real())
			nextSample += dt
		}
	})

	y0 := []field.Real{20. * math.Pi / 180., 0}
	_, err = engine.Integrate(0, y0, tEnd, handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		panic(err)
	}
	logger.Flush()

	fmt.Printf("integrated %d display frames\n", len(sample))
	pixelgl.Run(run)
}

func run() {
	cfg := pixelgl.WindowConfig{
		Title:  "pendulum (DP853)",
		Bounds: pixel.R(0, 0, 1024, 768),
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		panic(err)
	}

	const originX, originY, scale = 512, 600, 200
	frame := 0
	for !win.Closed() {
		win.SetClosed(win.JustPressed(pixelgl.KeyEscape) || win.JustPressed(pixelgl.KeyQ))

		win.Clear(colornames.White)

		if len(sample) > 0 {
			theta := sample[frame%len(sample)]
			// Rotate the rest-position rod vector (pointing straight down)
			// by theta in homogeneous 2D coordinates rather than computing
			// sin/cos by hand a second time.
			rot := mgl64.HomogRotate2D(theta)
			tip := rot.Mul3x1(mgl64.Vec3{0, -scale, 1})
			bobX := originX + tip[0]
			bobY := originY + tip[1]

			imd := imdraw.New(nil)
			imd.Color = colornames.Black
			imd.Push(pixel.V(originX, originY), pixel.V(bobX, bobY))
			imd.Line(2)
			imd.Color = colornames.Crimson
			imd.Push(pixel.V(bobX, bobY))
			imd.Circle(20, 0)
			imd.Draw(win)
			frame++
		}

		win.Update()
	}
}
