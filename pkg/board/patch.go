package board

// ItemPatch is the payload of an item.update for one item. Nil fields are left
// untouched on the target item; a non-nil ContainerID pointing at "" clears the
// container reference.
//
// A patch never changes an item's variant. Patches whose Type is set and differs
// from the target's are skipped.
type ItemPatch struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Text        *string  `json:"text,omitempty"`
	Color       *string  `json:"color,omitempty"`
	AssetID     *string  `json:"assetId,omitempty"`
	Src         *string  `json:"src,omitempty"`
	ContainerID *string  `json:"containerId,omitempty"`
}

// PatchOf returns a patch that sets every field of item, so applying it
// restores item exactly.
func PatchOf(item Item) ItemPatch {
	w := toWire(item)
	p := ItemPatch{
		ID:     w.ID,
		Type:   w.Type,
		X:      ptr(w.X),
		Y:      ptr(w.Y),
		Width:  ptr(w.Width),
		Height: ptr(w.Height),
	}
	switch item.(type) {
	case Note:
		p.Text, p.Color, p.ContainerID = ptr(w.Text), ptr(w.Color), ptr(w.ContainerID)
	case Text:
		p.Text, p.ContainerID = ptr(w.Text), ptr(w.ContainerID)
	case Image:
		p.AssetID, p.Src, p.ContainerID = ptr(w.AssetID), ptr(w.Src), ptr(w.ContainerID)
	case Container:
		p.Text = ptr(w.Text)
	}
	return p
}

// apply merges p onto item. ok is false when the patch targets a different variant.
func (p ItemPatch) apply(item Item) (updated Item, ok bool) {
	if p.Type != "" && p.Type != item.Type() {
		return item, false
	}
	w := toWire(item)
	setIf(&w.X, p.X)
	setIf(&w.Y, p.Y)
	setIf(&w.Width, p.Width)
	setIf(&w.Height, p.Height)
	setIf(&w.Text, p.Text)
	setIf(&w.Color, p.Color)
	setIf(&w.AssetID, p.AssetID)
	setIf(&w.Src, p.Src)
	setIf(&w.ContainerID, p.ContainerID)
	return w.item(), true
}

// merge overlays later onto p: fields set on later win.
func (p ItemPatch) merge(later ItemPatch) ItemPatch {
	out := p
	if later.Type != "" {
		out.Type = later.Type
	}
	pick(&out.X, later.X)
	pick(&out.Y, later.Y)
	pick(&out.Width, later.Width)
	pick(&out.Height, later.Height)
	pick(&out.Text, later.Text)
	pick(&out.Color, later.Color)
	pick(&out.AssetID, later.AssetID)
	pick(&out.Src, later.Src)
	pick(&out.ContainerID, later.ContainerID)
	return out
}

func ptr[T any](v T) *T { return &v }

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
