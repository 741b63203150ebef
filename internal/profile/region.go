package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/event"
)

// Rect is a rectangle in fractions of its container (0..1).
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) encode(e *etree.Element) {
	e.CreateAttr("x", formatFloat(r.X))
	e.CreateAttr("y", formatFloat(r.Y))
	e.CreateAttr("width", formatFloat(r.Width))
	e.CreateAttr("height", formatFloat(r.Height))
}

func decodeRect(e *etree.Element) (r Rect, err error) {
	if r.X, err = attrFloat(e, "x", 0); err != nil {
		return r, err
	}
	if r.Y, err = attrFloat(e, "y", 0); err != nil {
		return r, err
	}
	if r.Width, err = attrFloat(e, "width", 0); err != nil {
		return r, err
	}
	r.Height, err = attrFloat(e, "height", 0)
	return r, err
}

// Shape is the outline of a screen region.
type Shape uint8

const (
	ShapeRectangle Shape = iota
	ShapeEllipse
)

func (s Shape) String() string {
	if s == ShapeEllipse {
		return "Ellipse"
	}
	return "Rectangle"
}

func parseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "rectangle":
		return ShapeRectangle, nil
	case "ellipse":
		return ShapeEllipse, nil
	}
	return ShapeRectangle, fmt.Errorf("unknown shape %q", s)
}

// MaxRegionID is the largest screen region ID.
const MaxRegionID = 255

// ScreenRegion is an area of the screen that pointer events are tested
// against. Region IDs travel in the event data field and so range 1..255.
type ScreenRegion struct {
	ID              int64
	Name            string
	Shape           Shape
	Bounds          Rect
	Color           string
	BackgroundImage string
	Translucency    float64

	// ShowInState limits when the region overlay is shown. NoneID
	// components match any state.
	ShowInState event.LogicalState
}

// Contains reports whether a point in screen fractions lies in the region.
func (r *ScreenRegion) Contains(x, y float64) bool {
	if r.Shape == ShapeEllipse {
		if r.Bounds.Width <= 0 || r.Bounds.Height <= 0 {
			return false
		}
		cx := r.Bounds.X + r.Bounds.Width/2
		cy := r.Bounds.Y + r.Bounds.Height/2
		dx := (x - cx) / (r.Bounds.Width / 2)
		dy := (y - cy) / (r.Bounds.Height / 2)
		return dx*dx+dy*dy <= 1
	}
	return r.Bounds.Contains(x, y)
}

// Regions is the screen region registry.
type Regions struct {
	// RefImage is the reference screenshot regions were drawn on.
	RefImage string

	// OverlayPosition is where the region overlay is anchored.
	OverlayPosition string

	items map[int64]*ScreenRegion
}

func newRegions() *Regions {
	return &Regions{items: make(map[int64]*ScreenRegion)}
}

// Add registers a region. An ID of 0 is replaced with the lowest free ID.
func (r *Regions) Add(region ScreenRegion) (int64, error) {
	if region.ID == 0 {
		region.ID = r.freeID()
		if region.ID == 0 {
			return 0, ErrRegionLimit
		}
	}
	if region.ID < 1 || region.ID > MaxRegionID {
		return 0, fmt.Errorf("region id %d out of range [1,%d]", region.ID, MaxRegionID)
	}
	if _, ok := r.items[region.ID]; ok {
		return 0, fmt.Errorf("region %d: %w", region.ID, ErrDuplicateID)
	}
	r.items[region.ID] = &region
	return region.ID, nil
}

// Remove deletes a region.
func (r *Regions) Remove(id int64) error {
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("region %d: %w", id, ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// Get returns a region by ID.
func (r *Regions) Get(id int64) (*ScreenRegion, bool) {
	region, ok := r.items[id]
	return region, ok
}

// Has reports whether a region exists.
func (r *Regions) Has(id int64) bool {
	_, ok := r.items[id]
	return ok
}

// All returns the regions in ascending ID order.
func (r *Regions) All() []*ScreenRegion {
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*ScreenRegion, len(ids))
	for i, id := range ids {
		out[i] = r.items[id]
	}
	return out
}

// Len returns the number of regions.
func (r *Regions) Len() int { return len(r.items) }

// At returns the regions containing a point and visible in a state, in ID
// order.
func (r *Regions) At(x, y float64, s event.LogicalState) []*ScreenRegion {
	var out []*ScreenRegion
	for _, region := range r.All() {
		if s.Matches(region.ShowInState) && region.Contains(x, y) {
			out = append(out, region)
		}
	}
	return out
}

func (r *Regions) freeID() int64 {
	for id := int64(1); id <= MaxRegionID; id++ {
		if _, ok := r.items[id]; !ok {
			return id
		}
	}
	return 0
}
