package cli

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"

	"github.com/chewxy/math32"

	"github.com/gogpu/outline/scene"
	"github.com/gogpu/outline/silhouette"
)

// meshByName returns a new mesh for a config mesh name.
func meshByName(name string) (*scene.Mesh, error) {
	switch strings.ToLower(name) {
	case "cube":
		return scene.Cube(), nil
	case "sphere":
		return scene.UVSphere(16, 32), nil
	case "quad":
		return scene.Quad(), nil
	default:
		return nil, fmt.Errorf("unknown mesh %q (want cube, sphere or quad)", name)
	}
}

func radians(deg float32) float32 { return deg * math32.Pi / 180 }

// Objects builds the scene objects, turned by spin radians around the
// world Y axis.
func (c Config) Objects(spin float32) (scene.Set, error) {
	objs := make(scene.Set, 0, len(c.Scene.Objects))
	for i, oc := range c.Scene.Objects {
		mesh, err := meshByName(oc.Mesh)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		s := oc.Scale
		if s == 0 {
			s = 1
		}
		p := oc.Position
		model := scene.Mul(scene.RotateY(spin),
			scene.Mul(scene.Translate(p[0], p[1], p[2]),
				scene.Mul(scene.RotateY(radians(oc.RotateY)), scene.Scale(s, s, s))))

		obj := scene.Object{Mesh: mesh, Transform: model, Color: paletteColor(i)}
		if oc.Color != "" {
			obj.Color, _ = scene.ParseHex(oc.Color)
		}
		if oc.Outline {
			obj.Outline = c.objectOutline(oc)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// paletteColor is the fill of the i-th object when the config names none.
// Hues step by the golden angle so neighbours never share a color.
func paletteColor(i int) scene.Color {
	return scene.HSL(math.Mod(float64(i)*137.5, 360), 0.5, 0.6)
}

// objectOutline returns the tag of a configured object. An object that
// sets neither outline_color nor outline_width gets the zero tag and so
// uses the [outline] values; one that sets only one of them inherits the
// other from [outline].
func (c Config) objectOutline(oc ObjectConfig) *scene.Outline {
	if oc.OutlineColor == "" && oc.OutlineWidth == 0 {
		return &scene.Outline{}
	}
	st := c.Settings()
	o := &scene.Outline{Color: st.Color, Width: st.Width}
	if oc.OutlineColor != "" {
		o.Color, _ = scene.ParseHex(oc.OutlineColor)
	}
	if oc.OutlineWidth != 0 {
		o.Width = oc.OutlineWidth
	}
	return o
}

// Camera returns the configured perspective camera.
func (c Config) Camera() scene.Camera {
	s := c.Scene
	fov := s.FOV
	if fov <= 0 {
		fov = 45
	}
	return scene.NewCamera(s.Eye, s.Target, radians(fov), s.Width, s.Height)
}

// shade fills dst with the background and flat-shades objs over it.
func (c Config) shade(r *silhouette.Renderer, objs scene.Set, cam scene.Camera, dst *image.RGBA) {
	bg, _ := scene.ParseHex(c.Scene.Background)
	draw.Draw(dst, dst.Rect, image.NewUniform(bg.NRGBA()), image.Point{}, draw.Src)
	r.Fill(objs, cam, dst)
}
