// Command g3ddemo renders a small lit scene with shadows for a number of
// frames and prints renderer statistics.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
	_ "github.com/gogpu/g3d/recording"
	"github.com/gogpu/g3d/scene"
)

func main() {
	var (
		backendName = flag.String("backend", "", "device backend (wgpu, recording); empty picks the best available")
		width       = flag.Int("width", 800, "drawing buffer width")
		height      = flag.Int("height", 600, "drawing buffer height")
		frames      = flag.Int("frames", 120, "frames to render")
		samples     = flag.Int("samples", 1, "MSAA sample count")
		model       = flag.String("obj", "", "optional OBJ model placed above the box")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	opts := []g3d.Option{
		g3d.WithBackend(*backendName),
		g3d.WithSize(*width, *height),
		g3d.WithSampleCount(*samples),
		g3d.WithClearColor(gpucore.Color{R: 0.05, G: 0.07, B: 0.1, A: 1}),
	}
	if *verbose {
		opts = append(opts, g3d.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	r, err := g3d.New(opts...)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Dispose()

	root, cam, spinner := buildScene(r, float32(*width)/float32(*height))
	if *model != "" {
		loadModel(r, root, *model)
	}

	for i := range *frames {
		angle := float32(i) * mgl32.DegToRad(1.5)
		q := mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
		if err := r.SetLocalTransform(spinner, mgl32.Vec3{0, 0.5, 0}, q, mgl32.Vec3{1, 1, 1}); err != nil {
			log.Fatalf("Failed to move box: %v", err)
		}
		if err := r.RenderFrame(root, cam, nil); err != nil {
			log.Printf("Frame %d: %v", i, err)
		}
	}

	printStats(r.Stats())
}

func buildScene(r *g3d.Renderer, aspect float32) (root, cam, spinner scene.NodeID) {
	root = r.CreateNode()

	cam = r.CreateNode()
	must(r.SetCamera(cam, scene.NewPerspectiveCamera(50, aspect, 0.1, 100)))
	must(r.SetLocalTransform(cam, mgl32.Vec3{4, 3, 6}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}))
	r.Graph().LookAt(cam, mgl32.Vec3{0, 0.5, 0}, mgl32.Vec3{0, 1, 0})
	must(r.Attach(root, cam))

	spinner = r.CreateNode()
	box, err := r.CreateMesh(spinner, geometry.NewBox(1, 1, 1), r.CreateMaterial(material.Standard, material.Config{
		Name:      material.Ptr("box"),
		Color:     material.Ptr(mgl32.Vec3{0.9, 0.4, 0.1}),
		Roughness: material.Ptr[float32](0.4),
		Metalness: material.Ptr[float32](0.1),
	}))
	must(err)
	box.CastShadow = true
	must(r.Attach(root, spinner))

	floor := r.CreateNode()
	plane, err := r.CreateMesh(floor, geometry.NewPlane(10, 10, 1, 1), r.CreateMaterial(material.Lambert, material.Config{
		Name:  material.Ptr("floor"),
		Color: material.Ptr(mgl32.Vec3{0.6, 0.6, 0.6}),
	}))
	must(err)
	plane.ReceiveShadow = true
	must(r.SetLocalTransform(floor, mgl32.Vec3{}, mgl32.QuatRotate(-mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 1, 1}))
	must(r.Attach(root, floor))

	ambient := r.CreateNode()
	must(r.SetLight(ambient, scene.NewAmbientLight(mgl32.Vec3{1, 1, 1}, 0.2)))
	must(r.Attach(root, ambient))

	sun := r.CreateNode()
	light := scene.NewDirectionalLight(mgl32.Vec3{1, 0.95, 0.9}, 2)
	light.CastShadow = true
	must(r.SetLight(sun, light))
	must(r.SetLocalTransform(sun, mgl32.Vec3{5, 10, 3}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}))
	must(r.Attach(root, sun))
	return root, cam, spinner
}

func loadModel(r *g3d.Renderer, root scene.NodeID, name string) {
	f := r.Loader().LoadGeometry(context.Background(), name)
	<-f.Done()
	r.Loader().Poll()
	g, err := f.Result()
	if err != nil {
		log.Printf("Failed to load %s: %v", name, err)
		return
	}
	n := r.CreateNode()
	if _, err := r.CreateMesh(n, g, r.CreateMaterial(material.Phong, material.Config{Name: material.Ptr(name)})); err != nil {
		log.Printf("Failed to add %s: %v", name, err)
		return
	}
	must(r.SetLocalTransform(n, mgl32.Vec3{0, 2, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}))
	must(r.Attach(root, n))
}

func printStats(s g3d.Stats) {
	p := message.NewPrinter(language.English)
	p.Printf("frames:    %d rendered, %d dropped, %d resets\n", s.Frames, s.Dropped, s.Resets)
	p.Printf("last:      %d draws, %d shadow draws, %d culled, %d passes\n",
		s.Last.Draws, s.Last.ShadowDraws, s.Last.Culled, s.Last.Passes)
	p.Printf("programs:  %d live, %d compiles, %d hits\n", s.Programs, s.ProgramCache.Compiles, s.ProgramCache.Hits)
	p.Printf("uploads:   %d full, %d ranged, %d textures, %d bytes\n",
		s.Resources.FullUploads, s.Resources.RangeUploads, s.Resources.TextureUploads, s.Resources.BytesUploaded)
	p.Printf("state:     %d issued, %d skipped last frame\n", s.Last.StateChanges, s.Last.StateSkipped)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
