// sdfview bakes a primitive mesh into a signed-distance volume, sphere-traces
// it from a debug camera and writes the diagnostic image as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"

	"github.com/gekko3d/sdf"
	"github.com/gekko3d/sdf/mesh"
	"github.com/gekko3d/sdf/trace"
)

func main() {
	var (
		shape    = flag.String("shape", "sphere", "primitive to bake: sphere, cube or quad")
		voxels   = flag.Float64("voxels-per-unit", 24, "field resolution")
		width    = flag.Int("width", 320, "trace width in pixels")
		height   = flag.Int("height", 240, "trace height in pixels")
		upscale  = flag.Int("upscale", 2, "integer output upscale factor")
		overlays = flag.String("overlays", "hit,steps,distance", "comma-separated overlay toggles")
		workers  = flag.Int("workers", 0, "build workers, 0 = all CPUs")
		out      = flag.String("o", "sdfview.png", "output PNG path")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log := sdf.NewDefaultLogger("sdfview", *debug)

	var m *mesh.Mesh
	switch *shape {
	case "sphere":
		m = mesh.UVSphere(mgl32.Vec3{}, 1, 24, 16)
	case "cube":
		m = mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{1.5, 1.5, 1.5})
	case "quad":
		m = mesh.Quad(mgl32.Vec3{}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2, 0})
	default:
		fmt.Fprintf(os.Stderr, "unknown shape %q\n", *shape)
		os.Exit(2)
	}

	cfg := sdf.DefaultConfig()
	cfg.VoxelsPerUnit = float32(*voxels)
	cfg.Workers = *workers
	cfg.Logger = log

	scene := sdf.NewScene(cfg)
	id := scene.Add(m, mgl32.Ident4())

	build, err := scene.Build()
	if err != nil {
		log.Errorf("build: %v", err)
		os.Exit(1)
	}
	sampler, _ := build.Sampler(id)

	tcfg := trace.DefaultConfig()
	tcfg.OverlayHit = false
	tcfg.OverlaySteps = false
	tcfg.OverlayDistance = false
	for _, o := range strings.Split(*overlays, ",") {
		switch strings.TrimSpace(o) {
		case "hit":
			tcfg.OverlayHit = true
		case "steps":
			tcfg.OverlaySteps = true
		case "distance":
			tcfg.OverlayDistance = true
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown overlay %q\n", o)
			os.Exit(2)
		}
	}

	view := trace.LookAtView(
		mgl32.Vec3{2.5, 2, 3.5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(50), *width, *height)

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	hits := 0
	for py := 0; py < *height; py++ {
		for px := 0; px < *width; px++ {
			origin, dir := view.Ray(px, py)
			res := trace.March(sampler, origin, dir, tcfg)
			if res.Status == trace.StatusHit {
				hits++
			}
			c := trace.Shade(res, tcfg)
			img.SetRGBA(px, py, color.RGBA{
				R: uint8(c.X() * 255),
				G: uint8(c.Y() * 255),
				B: uint8(c.Z() * 255),
				A: 255,
			})
		}
	}
	log.Infof("traced %dx%d, %d hits", *width, *height, hits)

	var final image.Image = img
	if *upscale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, *width**upscale, *height**upscale))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		final = dst
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Errorf("create %s: %v", *out, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, final); err != nil {
		log.Errorf("encode png: %v", err)
		os.Exit(1)
	}
	log.Infof("wrote %s", *out)
}
