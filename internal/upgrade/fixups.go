package upgrade

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
)

// Fixup is a programmatic rewrite run after a checkpoint's rule file.
type Fixup func(doc *etree.Document) error

// DefaultTranslucency is given to windows and regions without a
// background image by the 1.5 fixup.
const DefaultTranslucency = 0.5

// extendedKeys are the virtual keys whose scan codes carry the extended
// flag: navigation cluster, arrows, print screen, Windows and menu keys,
// keypad divide, num lock, and the right-hand control and alt keys.
var extendedKeys = map[int64]bool{
	0x21: true, 0x22: true, 0x23: true, 0x24: true,
	0x25: true, 0x26: true, 0x27: true, 0x28: true,
	0x2C: true, 0x2D: true, 0x2E: true,
	0x5B: true, 0x5C: true, 0x5D: true,
	0x6F: true, 0x90: true, 0xA3: true, 0xA5: true,
}

var keyActionTags = map[string]bool{
	action.TagPressKey:   true,
	action.TagHoldKey:    true,
	action.TagReleaseKey: true,
	action.TagToggleKey:  true,
}

func intAttr(e *etree.Element, key string) (int64, error) {
	s := strings.TrimSpace(e.SelectAttrValue(key, ""))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: attribute %s=%q: not an integer", e.GetPath(), key, s)
	}
	return v, nil
}

func controlType(e *etree.Element) event.ControlType {
	s := e.SelectAttrValue("controltype", "")
	if ct, err := event.ParseControlType(s); err == nil {
		return ct
	}
	n, _ := strconv.Atoi(s)
	return event.ControlType(n)
}

func reason(e *etree.Element) event.Reason {
	s := e.SelectAttrValue("eventreason", "")
	if r, err := event.ParseReason(s); err == nil {
		return r
	}
	n, _ := strconv.Atoi(s)
	return event.Reason(n)
}

func actionLists(doc *etree.Document) []*etree.Element {
	return doc.FindElements("/profile/mapping/actionlist")
}

// fixExtendedScanCodes sets the extended flag on the scan codes of
// extended keys, in key actions and in keyboard event bindings.
func fixExtendedScanCodes(doc *etree.Document) error {
	flag := func(e *etree.Element, keyAttr, scanAttr string) error {
		vk, err := intAttr(e, keyAttr)
		if err != nil || !extendedKeys[vk] {
			return err
		}
		sc, err := intAttr(e, scanAttr)
		if err != nil {
			return err
		}
		e.CreateAttr(scanAttr, strconv.FormatInt(sc|action.ExtendedFlag, 10))
		return nil
	}

	for _, l := range actionLists(doc) {
		if controlType(l) == event.ControlKeyboard {
			if err := flag(l, "eventdata", "extraeventdata"); err != nil {
				return err
			}
		}
		for _, a := range l.ChildElements() {
			if !keyActionTags[a.Tag] {
				continue
			}
			if err := flag(a, "key", "scancode"); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitPointerRegions moves actions of region-agnostic pointer lists that
// name a screen region into per-region lists fired on entering the region.
// Auto-release actions get a companion release list fired on leaving it.
// What stays in the region-agnostic list now fires on every update.
func splitPointerRegions(doc *etree.Document) error {
	mappingElem := doc.FindElement("/profile/mapping")
	if mappingElem == nil {
		return nil
	}

	index := make(map[string]*etree.Element)
	lists := actionLists(doc)
	for _, l := range lists {
		if controlType(l) == event.ControlMousePointer {
			index[listKey(l)] = l
		}
	}

	for _, l := range lists {
		if controlType(l) != event.ControlMousePointer {
			continue
		}
		data, err := intAttr(l, "eventdata")
		if err != nil {
			return err
		}
		if data != 0 {
			continue
		}

		byRegion := make(map[int64][]*etree.Element)
		for _, a := range l.ChildElements() {
			if a.SelectAttr("region") == nil {
				continue
			}
			region, err := intAttr(a, "region")
			if err != nil {
				return err
			}
			a.RemoveAttr("region")
			if region == 0 {
				continue
			}
			l.RemoveChild(a)
			byRegion[region] = append(byRegion[region], a)
		}

		regions := make([]int64, 0, len(byRegion))
		for r := range byRegion {
			regions = append(regions, r)
		}
		sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

		for _, region := range regions {
			inside := regionList(mappingElem, index, l, region, event.ReasonInside)
			for _, a := range byRegion[region] {
				inside.AddChild(a)
				if a.Tag != action.TagHoldKey || a.SelectAttrValue("autorelease", "") != "true" {
					continue
				}
				outside := regionList(mappingElem, index, l, region, event.ReasonOutside)
				release := outside.CreateElement(action.TagReleaseKey)
				release.CreateAttr("key", a.SelectAttrValue("key", "0"))
				if sc := a.SelectAttrValue("scancode", ""); sc != "" {
					release.CreateAttr("scancode", sc)
				}
			}
		}

		if len(l.ChildElements()) == 0 && len(regions) > 0 {
			mappingElem.RemoveChild(l)
			delete(index, listKey(l))
			continue
		}
		if reason(l) == event.ReasonMoved {
			delete(index, listKey(l))
			l.CreateAttr("eventreason", event.ReasonUpdated.String())
			index[listKey(l)] = l
		}
	}
	return nil
}

// listKey identifies a pointer list by state, source, region and reason.
func listKey(l *etree.Element) string {
	return strings.Join([]string{
		l.SelectAttrValue("modeid", "0"),
		l.SelectAttrValue("appid", "0"),
		l.SelectAttrValue("pageid", "0"),
		l.SelectAttrValue("sourceid", "0"),
		l.SelectAttrValue("eventdata", "0"),
		reason(l).String(),
	}, "/")
}

// regionList returns the pointer list for a region and reason in the same
// state and source as src, creating it if needed.
func regionList(parent *etree.Element, index map[string]*etree.Element, src *etree.Element, region int64, r event.Reason) *etree.Element {
	l := etree.NewElement(src.Tag)
	for _, a := range src.Attr {
		l.CreateAttr(a.FullKey(), a.Value)
	}
	l.CreateAttr("eventdata", strconv.FormatInt(region, 10))
	l.CreateAttr("eventreason", r.String())
	l.RemoveAttr("eventname")

	key := listKey(l)
	if existing, ok := index[key]; ok {
		return existing
	}
	parent.AddChild(l)
	index[key] = l
	return l
}

// defaultTranslucency gives custom windows and screen regions without a
// background image the default translucency.
func defaultTranslucency(doc *etree.Document) error {
	var elems []*etree.Element
	elems = append(elems, doc.FindElements("/profile/sources/CustomWindowSource")...)
	elems = append(elems, doc.FindElements("/profile/regions/region")...)
	for _, e := range elems {
		if e.SelectAttrValue("backgroundimage", "") != "" || e.SelectAttr("translucency") != nil {
			continue
		}
		e.CreateAttr("translucency", strconv.FormatFloat(DefaultTranslucency, 'g', -1, 64))
	}
	return nil
}
