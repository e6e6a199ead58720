package scene

// Object is one renderable instance: a mesh placed in the world.
// Objects with a non-nil Outline are drawn into the silhouette mask.
type Object struct {
	Mesh      *Mesh
	Transform Mat4

	// Color is the flat shading color used when the host draws the object
	// into its own scene image. The outline pipeline ignores it.
	Color Color

	// Outline tags the object for outlining. Nil means untagged.
	Outline *Outline
}

// Tagged reports whether the object takes part in the silhouette pass.
func (o *Object) Tagged() bool {
	return o.Outline != nil && o.Mesh != nil
}

// Set is the renderable set of one frame.
type Set []Object

// Tagged returns the objects carrying an outline tag.
func (s Set) Tagged() Set {
	var out Set
	for i := range s {
		if s[i].Tagged() {
			out = append(out, s[i])
		}
	}
	return out
}

// ResolveGroup resolves the per-object outline tags of s into the single
// color and width the composite pass uses for a camera. The first tagged
// object wins. When nothing is tagged, the default outline is returned with
// ok set to false.
func ResolveGroup(s Set) (o Outline, ok bool) {
	for i := range s {
		if s[i].Tagged() {
			return *s[i].Outline, true
		}
	}
	return DefaultOutline(), false
}
