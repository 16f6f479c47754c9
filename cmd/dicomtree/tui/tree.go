package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/resolve"
)

// StudyTree renders the resolved tree of one study under its label.
func StudyTree(st *record.Study, nodes []*resolve.Node) *tree.Tree {
	t := tree.Root(studyStyle.Render(resolve.StudyLabel(st))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, n := range nodes {
		t.Child(nodeTree(n))
	}
	return t
}

// PatientTree renders every study of p, resolving each one.
func PatientTree(p *record.Patient) *tree.Tree {
	t := tree.Root(patientStyle.Render(resolve.PatientLabel(p))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, st := range p.Studies() {
		t.Child(StudyTree(st, resolve.Resolve(st)))
	}
	return t
}

// RenderCollection renders one tree per patient.
func RenderCollection(c *record.Collection) string {
	var sb strings.Builder
	for _, p := range c.Patients() {
		sb.WriteString(PatientTree(p).String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func nodeTree(n *resolve.Node) any {
	label := seriesStyle.Render(n.Label())
	if n.Kind == resolve.KindPlaceholder {
		label = placeholderStyle.Render(n.Label())
	}
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, c := range n.Children {
		t.Child(nodeTree(c))
	}
	return t
}
