// Package query answers read-only questions about a scanned collection:
// which files lie under a subtree, and where a patient, study or series is.
package query

import (
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/resolve"
)

// FilesOfSeries returns the instance paths of s in insertion order.
func FilesOfSeries(s *record.Series) []string {
	out := make([]string, 0, s.Len())
	for _, inst := range s.Instances() {
		out = append(out, inst.Path)
	}
	return out
}

// FilesOfStudy returns every instance path of st, bucket by bucket.
func FilesOfStudy(st *record.Study) []string {
	var out []string
	for _, s := range st.AllSeries() {
		out = append(out, FilesOfSeries(s)...)
	}
	return out
}

// FilesOfPatient returns every instance path of p, study by study.
func FilesOfPatient(p *record.Patient) []string {
	var out []string
	for _, st := range p.Studies() {
		out = append(out, FilesOfStudy(st)...)
	}
	return out
}

// FilesOfCollection returns every instance path of c, depth first.
func FilesOfCollection(c *record.Collection) []string {
	var out []string
	for _, p := range c.Patients() {
		out = append(out, FilesOfPatient(p)...)
	}
	return out
}

// FilesOf returns the instance paths of the series in the given subtrees,
// in tree order. Placeholders contribute nothing themselves.
func FilesOf(nodes ...*resolve.Node) []string {
	var out []string
	resolve.Walk(nodes, func(n *resolve.Node, _ int) {
		if n.Kind == resolve.KindSeries {
			out = append(out, FilesOfSeries(n.Series)...)
		}
	})
	return out
}

// LookupPatient returns the patient with the given ID, or nil.
func LookupPatient(c *record.Collection, patientID string) *record.Patient {
	p, _ := c.Patient(patientID)
	return p
}

// LookupStudy returns a study of a patient, or nil.
func LookupStudy(c *record.Collection, patientID, studyUID string) *record.Study {
	p := LookupPatient(c, patientID)
	if p == nil {
		return nil
	}
	st, _ := p.Study(studyUID)
	return st
}

// LookupSeries returns a series of st, or nil.
func LookupSeries(st *record.Study, seriesUID string) *record.Series {
	s, _ := st.Series(seriesUID)
	return s
}

// FindStudy searches every patient for a study UID and returns the first
// match with its patient.
func FindStudy(c *record.Collection, studyUID string) (*record.Patient, *record.Study, bool) {
	for _, p := range c.Patients() {
		if st, ok := p.Study(studyUID); ok {
			return p, st, true
		}
	}
	return nil, nil, false
}
