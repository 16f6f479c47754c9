// Package resolve turns the buckets of one study into a presentation tree:
// RT Structure Sets under the image series they contour, plans under their
// structure set and doses under their plan. When a reference cannot be
// followed the object is placed by frame of reference under a placeholder,
// and as a last resort at the top level.
package resolve

import (
	"fmt"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
)

// Kind distinguishes series nodes from placeholders.
type Kind int

const (
	KindSeries Kind = iota
	KindPlaceholder
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindPlaceholder {
		return "placeholder"
	}
	return "series"
}

// Placeholder labels.
const (
	NoRTStructLabel = "No matching RTSTRUCT found"
	NoRTPlanLabel   = "No matching RTPLAN found"
)

// Node is one entry of the presentation tree. Series is nil for placeholders.
type Node struct {
	Kind     Kind
	Series   *record.Series
	Missing  modalities.Role // placeholders: the role that could not be found
	Children []*Node
}

// Label returns the display text of the node.
func (n *Node) Label() string {
	if n.Kind == KindPlaceholder {
		if n.Missing == modalities.RoleRTPlan {
			return NoRTPlanLabel
		}
		return NoRTStructLabel
	}
	return SeriesLabel(n.Series)
}

func (n *Node) add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

func seriesNode(s *record.Series) *Node {
	return &Node{Kind: KindSeries, Series: s}
}

func placeholder(missing modalities.Role) *Node {
	return &Node{Kind: KindPlaceholder, Missing: missing}
}

// SeriesLabel renders "Series: {description} ({type}, {n} images)".
func SeriesLabel(s *record.Series) string {
	return fmt.Sprintf("Series: %s (%s, %d images)", s.Description, s.Type(), s.Len())
}

// StudyLabel renders "Study: {description} (DICOM-RT: Y|N)".
func StudyLabel(st *record.Study) string {
	rt := "N"
	if IsCompleteRTStudy(st) {
		rt = "Y"
	}
	return fmt.Sprintf("Study: %s (DICOM-RT: %s)", st.Description, rt)
}

// PatientLabel renders "Patient: {name} ({id})".
func PatientLabel(p *record.Patient) string {
	return fmt.Sprintf("Patient: %s (%s)", p.PatientName, p.PatientID)
}

// resolver tracks attached nodes per role in attachment order.
type resolver struct {
	roots   []*Node
	images  []*Node
	byUID   map[string]*Node
	structs []*Node
	plans   []*Node
}

func (r *resolver) top(n *Node) *Node {
	r.roots = append(r.roots, n)
	return n
}

func (r *resolver) imageWithFoR(uid string) *Node {
	if uid == "" {
		return nil
	}
	for _, n := range r.images {
		if n.Series.FrameOfReferenceUID == uid {
			return n
		}
	}
	return nil
}

func firstHolding(nodes []*Node, instanceUID string) *Node {
	if instanceUID == "" {
		return nil
	}
	for _, n := range nodes {
		if n.Series.HasInstance(instanceUID) {
			return n
		}
	}
	return nil
}

// Resolve builds a fresh presentation tree for st. Every series of st
// appears exactly once.
func Resolve(st *record.Study) []*Node {
	r := &resolver{byUID: make(map[string]*Node)}

	for _, s := range st.ImageSeries.All() {
		n := r.top(seriesNode(s))
		r.images = append(r.images, n)
		if _, ok := r.byUID[s.SeriesUID]; !ok {
			r.byUID[s.SeriesUID] = n
		}
	}

	for _, key := range st.RTStruct.Keys() {
		img := r.byUID[key]
		for _, s := range st.RTStruct.Get(key) {
			n := seriesNode(s)
			if key != "" && img != nil {
				img.add(n)
			} else {
				r.top(n)
			}
			r.structs = append(r.structs, n)
		}
	}

	for _, key := range st.RTPlan.Keys() {
		for _, s := range st.RTPlan.Get(key) {
			r.plans = append(r.plans, r.attachPlan(key, s))
		}
	}

	for _, key := range st.RTDose.Keys() {
		for _, s := range st.RTDose.Get(key) {
			r.attachDose(key, s)
		}
	}

	return r.roots
}

func (r *resolver) attachPlan(rtssUID string, s *record.Series) *Node {
	n := seriesNode(s)
	if parent := firstHolding(r.structs, rtssUID); parent != nil {
		return parent.add(n)
	}
	if img := r.imageWithFoR(s.FrameOfReferenceUID); img != nil {
		return img.add(placeholder(modalities.RoleRTStruct)).add(n)
	}
	return r.top(n)
}

func (r *resolver) attachDose(planUID string, s *record.Series) *Node {
	n := seriesNode(s)
	if parent := firstHolding(r.plans, planUID); parent != nil {
		return parent.add(n)
	}

	rtss, forUID := s.ReferencedRTSSInstanceUID, s.FrameOfReferenceUID
	if rtss != "" || forUID != "" {
		for _, sn := range r.structs {
			if (rtss != "" && sn.Series.HasInstance(rtss)) ||
				(forUID != "" && sn.Series.FrameOfReferenceUID == forUID) {
				return sn.add(placeholder(modalities.RoleRTPlan)).add(n)
			}
		}
	}

	if img := r.imageWithFoR(forUID); img != nil {
		return img.add(placeholder(modalities.RoleRTStruct)).add(placeholder(modalities.RoleRTPlan)).add(n)
	}
	return r.top(n)
}

// IsCompleteRTStudy reports whether the distinct SOP classes of every
// instance in st are exactly CT Image, RT Structure Set, RT Dose and RT Plan.
// Any additional class, such as PET, makes the study incomplete.
func IsCompleteRTStudy(st *record.Study) bool {
	classes := make(map[string]bool)
	for _, s := range st.AllSeries() {
		for _, inst := range s.Instances() {
			classes[inst.ClassUID] = true
		}
	}
	if len(classes) != len(modalities.RTClasses) {
		return false
	}
	for _, c := range modalities.RTClasses {
		if !classes[c] {
			return false
		}
	}
	return true
}

// Walk visits nodes depth first, parents before children.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range nodes {
		visit(n, 0)
	}
}
