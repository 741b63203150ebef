package profile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/upgrade"
)

// Element names of the profile document.
const (
	elemProfile    = "profile"
	elemNotes      = "notes"
	elemSources    = "sources"
	elemRegions    = "regions"
	elemRegion     = "region"
	elemModes      = "modes"
	elemApps       = "apps"
	elemPages      = "pages"
	elemMapping    = "mapping"
	elemActionList = "actionlist"
)

func formatInt(v int64) string     { return strconv.FormatInt(v, 10) }
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
func formatBool(v bool) string     { return strconv.FormatBool(v) }

func attrInt(e *etree.Element, key string, def int64) (int64, error) {
	s := strings.TrimSpace(e.SelectAttrValue(key, ""))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return def, fmt.Errorf("attribute %s=%q: not an integer", key, s)
	}
	return v, nil
}

func attrFloat(e *etree.Element, key string, def float64) (float64, error) {
	s := strings.TrimSpace(e.SelectAttrValue(key, ""))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, fmt.Errorf("attribute %s=%q: not a number", key, s)
	}
	return v, nil
}

func attrBool(e *etree.Element, key string) (bool, error) {
	s := strings.TrimSpace(e.SelectAttrValue(key, ""))
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("attribute %s=%q: not a boolean", key, s)
	}
	return v, nil
}

// attrEnum reads an enum attribute written either by name or as a number.
func attrEnum[T ~uint8 | ~uint32](e *etree.Element, key string, parse func(string) (T, error)) (T, error) {
	s := strings.TrimSpace(e.SelectAttrValue(key, ""))
	if s == "" {
		return 0, nil
	}
	if v, err := parse(s); err == nil {
		return v, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("attribute %s=%q: unknown value", key, s)
	}
	return T(n), nil
}

// FromDocument builds a profile from a parsed document. The document must
// be at the current schema version; see upgrade.Upgrader.
func FromDocument(doc *etree.Document) (*Profile, error) {
	root := doc.SelectElement(elemProfile)
	if root == nil {
		return nil, malformed("/", fmt.Errorf("missing <%s> root element", elemProfile))
	}

	p := New(root.SelectAttrValue("name", ""))
	if notes := root.SelectElement(elemNotes); notes != nil {
		p.Notes = notes.Text()
	}

	if err := p.decodeSources(root.SelectElement(elemSources)); err != nil {
		return nil, err
	}
	if err := p.decodeRegions(root.SelectElement(elemRegions)); err != nil {
		return nil, err
	}
	for _, reg := range []struct {
		container, item string
		items           *NamedItems
	}{
		{elemModes, "mode", p.Modes},
		{elemApps, "app", p.Apps},
		{elemPages, "page", p.Pages},
	} {
		if err := decodeNamedItems(root.SelectElement(reg.container), reg.item, reg.items); err != nil {
			return nil, err
		}
	}
	if err := p.decodeMapping(root.SelectElement(elemMapping)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) decodeSources(e *etree.Element) error {
	if e == nil {
		return nil
	}
	for _, se := range e.ChildElements() {
		s, err := newSource(se.Tag)
		if err != nil {
			return malformed(se.GetPath(), err)
		}
		if err := s.decode(se); err != nil {
			return malformed(se.GetPath(), err)
		}
		if s.ID() < 1 || s.ID() > MaxSourceID {
			return malformed(se.GetPath(), fmt.Errorf("source id %d out of range [1,%d]", s.ID(), MaxSourceID))
		}
		if _, err := p.AddSource(s); err != nil {
			return malformed(se.GetPath(), err)
		}
	}
	return nil
}

func (p *Profile) decodeRegions(e *etree.Element) error {
	if e == nil {
		return nil
	}
	p.Regions.RefImage = e.SelectAttrValue("refimage", "")
	p.Regions.OverlayPosition = e.SelectAttrValue("overlayposition", "")
	for _, re := range e.SelectElements(elemRegion) {
		r, err := decodeRegion(re)
		if err != nil {
			return malformed(re.GetPath(), err)
		}
		if r.ID == 0 {
			return malformed(re.GetPath(), fmt.Errorf("missing region id"))
		}
		if _, err := p.Regions.Add(r); err != nil {
			return malformed(re.GetPath(), err)
		}
	}
	return nil
}

func decodeRegion(e *etree.Element) (r ScreenRegion, err error) {
	if r.ID, err = attrInt(e, "id", 0); err != nil {
		return r, err
	}
	r.Name = e.SelectAttrValue("name", "")
	if r.Shape, err = parseShape(e.SelectAttrValue("shape", "")); err != nil {
		return r, err
	}
	if r.Bounds, err = decodeRect(e); err != nil {
		return r, err
	}
	r.Color = e.SelectAttrValue("color", "")
	r.BackgroundImage = e.SelectAttrValue("backgroundimage", "")
	if r.Translucency, err = attrFloat(e, "translucency", 0); err != nil {
		return r, err
	}
	if r.ShowInState.ModeID, err = attrInt(e, "showmodeid", event.NoneID); err != nil {
		return r, err
	}
	if r.ShowInState.AppID, err = attrInt(e, "showappid", event.NoneID); err != nil {
		return r, err
	}
	r.ShowInState.PageID, err = attrInt(e, "showpageid", event.NoneID)
	return r, err
}

func decodeNamedItems(e *etree.Element, tag string, items *NamedItems) error {
	if e == nil {
		return nil
	}
	for _, ie := range e.SelectElements(tag) {
		id, err := attrInt(ie, "id", -1)
		if err != nil {
			return malformed(ie.GetPath(), err)
		}
		if err := items.Put(NamedItem{ID: id, Name: ie.SelectAttrValue("name", "")}); err != nil {
			return malformed(ie.GetPath(), err)
		}
	}
	return nil
}

func (p *Profile) decodeMapping(e *etree.Element) error {
	if e == nil {
		return nil
	}
	for _, le := range e.SelectElements(elemActionList) {
		l, err := decodeActionList(le)
		if err != nil {
			return malformed(le.GetPath(), err)
		}
		p.SetActionList(l)
	}
	return nil
}

func decodeActionList(e *etree.Element) (*action.ActionList, error) {
	var (
		s   event.LogicalState
		d   event.Descriptor
		err error
	)
	if s.ModeID, err = attrInt(e, "modeid", event.DefaultID); err != nil {
		return nil, err
	}
	if s.AppID, err = attrInt(e, "appid", event.DefaultID); err != nil {
		return nil, err
	}
	if s.PageID, err = attrInt(e, "pageid", event.DefaultID); err != nil {
		return nil, err
	}
	if d, err = DecodeDescriptor(e); err != nil {
		return nil, err
	}
	mode, err := action.ParseExecutionMode(e.SelectAttrValue("executionmode", ""))
	if err != nil {
		return nil, err
	}

	l := action.NewActionList(s, d, mode)
	for _, ae := range e.ChildElements() {
		f := make(action.Fields, len(ae.Attr))
		for _, attr := range ae.Attr {
			f[attr.Key] = attr.Value
		}
		a, err := action.Decode(ae.Tag, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ae.GetPath(), err)
		}
		l.Add(a)
	}
	return l, nil
}

// DecodeDescriptor reads the event attributes of an element.
func DecodeDescriptor(e *etree.Element) (d event.Descriptor, err error) {
	if d.SourceID, err = attrInt(e, "sourceid", 0); err != nil {
		return d, err
	}
	if d.ControlType, err = attrEnum(e, "controltype", event.ParseControlType); err != nil {
		return d, err
	}
	if d.Side, err = attrEnum(e, "side", event.ParseSide); err != nil {
		return d, err
	}
	button, err := attrInt(e, "buttonid", 0)
	if err != nil {
		return d, err
	}
	d.ButtonID = uint8(button)
	if d.LRUD, err = attrEnum(e, "lrudstate", event.ParseLRUD); err != nil {
		return d, err
	}
	data, err := attrInt(e, "eventdata", 0)
	if err != nil {
		return d, err
	}
	d.Data = int(data)
	extra, err := attrInt(e, "extraeventdata", 0)
	if err != nil {
		return d, err
	}
	d.ExtraData = int(extra)
	if d.Reason, err = attrEnum(e, "eventreason", event.ParseReason); err != nil {
		return d, err
	}
	d.Name = e.SelectAttrValue("eventname", "")
	return d, nil
}

// EncodeDescriptor writes the event attributes of d to an element.
func EncodeDescriptor(e *etree.Element, d event.Descriptor) {
	e.CreateAttr("sourceid", formatInt(d.SourceID))
	e.CreateAttr("controltype", d.ControlType.String())
	e.CreateAttr("side", d.Side.String())
	e.CreateAttr("buttonid", formatInt(int64(d.ButtonID)))
	e.CreateAttr("lrudstate", d.LRUD.String())
	e.CreateAttr("eventdata", formatInt(int64(d.Data)))
	e.CreateAttr("extraeventdata", formatInt(int64(d.ExtraData)))
	e.CreateAttr("eventreason", d.Reason.String())
	if d.Name != "" {
		e.CreateAttr("eventname", d.Name)
	}
}

// ToDocument writes the profile as a document at the current schema
// version.
func (p *Profile) ToDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(elemProfile)
	root.CreateAttr("version", upgrade.CurrentVersion)
	if p.Name != "" {
		root.CreateAttr("name", p.Name)
	}
	root.CreateElement(elemNotes).SetText(p.Notes)

	sources := root.CreateElement(elemSources)
	for _, s := range p.Sources() {
		s.encode(sources.CreateElement(s.Tag()))
	}

	regions := root.CreateElement(elemRegions)
	regions.CreateAttr("refimage", p.Regions.RefImage)
	regions.CreateAttr("overlayposition", p.Regions.OverlayPosition)
	for _, r := range p.Regions.All() {
		encodeRegion(regions.CreateElement(elemRegion), r)
	}

	encodeNamedItems(root.CreateElement(elemModes), "mode", p.Modes)
	encodeNamedItems(root.CreateElement(elemApps), "app", p.Apps)
	encodeNamedItems(root.CreateElement(elemPages), "page", p.Pages)

	lists := root.CreateElement(elemMapping)
	p.EachActionList(func(l *action.ActionList) {
		encodeActionList(lists.CreateElement(elemActionList), l)
	})

	doc.Indent(2)
	return doc
}

func encodeRegion(e *etree.Element, r *ScreenRegion) {
	e.CreateAttr("id", formatInt(r.ID))
	e.CreateAttr("name", r.Name)
	e.CreateAttr("shape", r.Shape.String())
	r.Bounds.encode(e)
	if r.Color != "" {
		e.CreateAttr("color", r.Color)
	}
	if r.BackgroundImage != "" {
		e.CreateAttr("backgroundimage", r.BackgroundImage)
	}
	e.CreateAttr("translucency", formatFloat(r.Translucency))
	e.CreateAttr("showmodeid", formatInt(r.ShowInState.ModeID))
	e.CreateAttr("showappid", formatInt(r.ShowInState.AppID))
	e.CreateAttr("showpageid", formatInt(r.ShowInState.PageID))
}

func encodeNamedItems(e *etree.Element, tag string, items *NamedItems) {
	for _, item := range items.All() {
		ie := e.CreateElement(tag)
		ie.CreateAttr("id", formatInt(item.ID))
		ie.CreateAttr("name", item.Name)
	}
}

func encodeActionList(e *etree.Element, l *action.ActionList) {
	e.CreateAttr("modeid", formatInt(l.State.ModeID))
	e.CreateAttr("appid", formatInt(l.State.AppID))
	e.CreateAttr("pageid", formatInt(l.State.PageID))
	EncodeDescriptor(e, l.Event)
	e.CreateAttr("executionmode", l.Mode.String())
	for _, a := range l.Actions() {
		ae := e.CreateElement(a.Tag())
		f := a.Fields()
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if f[k] != "" {
				ae.CreateAttr(k, f[k])
			}
		}
	}
}
