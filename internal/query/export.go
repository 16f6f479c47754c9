package query

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/resolve"
	"gopkg.in/yaml.v3"
)

// CollectionDoc is the export form of a collection.
type CollectionDoc struct {
	Counts   record.Counts `json:"counts" yaml:"counts"`
	Patients []PatientDoc  `json:"patients" yaml:"patients"`
}

// PatientDoc is the export form of a patient and its studies.
type PatientDoc struct {
	ID      string     `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Label   string     `json:"label" yaml:"label"`
	Studies []StudyDoc `json:"studies" yaml:"studies"`
}

// StudyDoc is the export form of a study. Series is empty in listings.
type StudyDoc struct {
	UID         string      `json:"uid" yaml:"uid"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Label       string      `json:"label" yaml:"label"`
	CompleteRT  bool        `json:"complete_rt" yaml:"complete_rt"`
	Series      []SeriesDoc `json:"series,omitempty" yaml:"series,omitempty"`
}

// SeriesDoc is the export form of a series with its RT references.
type SeriesDoc struct {
	UID                         string        `json:"uid" yaml:"uid"`
	Description                 string        `json:"description,omitempty" yaml:"description,omitempty"`
	Role                        string        `json:"role" yaml:"role"`
	Type                        string        `json:"type" yaml:"type"`
	Label                       string        `json:"label" yaml:"label"`
	FrameOfReferenceUID         string        `json:"frame_of_reference_uid,omitempty" yaml:"frame_of_reference_uid,omitempty"`
	ReferencedImageSeriesUID    string        `json:"referenced_image_series_uid,omitempty" yaml:"referenced_image_series_uid,omitempty"`
	ReferencedRTSSInstanceUID   string        `json:"referenced_rtss_instance_uid,omitempty" yaml:"referenced_rtss_instance_uid,omitempty"`
	ReferencedRTPlanInstanceUID string        `json:"referenced_rtplan_instance_uid,omitempty" yaml:"referenced_rtplan_instance_uid,omitempty"`
	Instances                   []InstanceDoc `json:"instances" yaml:"instances"`
}

// InstanceDoc is the export form of one instance file.
type InstanceDoc struct {
	UID      string `json:"uid" yaml:"uid"`
	ClassUID string `json:"class_uid" yaml:"class_uid"`
	Modality string `json:"modality" yaml:"modality"`
	Path     string `json:"path" yaml:"path"`
}

// TreeDoc is the export form of a resolved study.
type TreeDoc struct {
	PatientID string    `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Study     StudyDoc  `json:"study" yaml:"study"`
	Nodes     []NodeDoc `json:"nodes" yaml:"nodes"`
}

// NodeDoc is one node of an exported tree. Placeholders carry no series UID or files.
type NodeDoc struct {
	Kind      string    `json:"kind" yaml:"kind"`
	Label     string    `json:"label" yaml:"label"`
	SeriesUID string    `json:"series_uid,omitempty" yaml:"series_uid,omitempty"`
	Files     []string  `json:"files,omitempty" yaml:"files,omitempty"`
	Children  []NodeDoc `json:"children,omitempty" yaml:"children,omitempty"`
}

// ExportCollection converts c to a document.
func ExportCollection(c *record.Collection) CollectionDoc {
	doc := CollectionDoc{Counts: c.Counts(), Patients: []PatientDoc{}}
	for _, p := range c.Patients() {
		doc.Patients = append(doc.Patients, ExportPatient(p))
	}
	return doc
}

// ExportPatient converts p and its studies to a document.
func ExportPatient(p *record.Patient) PatientDoc {
	doc := PatientDoc{
		ID:      p.PatientID,
		Name:    p.PatientName,
		Label:   resolve.PatientLabel(p),
		Studies: []StudyDoc{},
	}
	for _, st := range p.Studies() {
		doc.Studies = append(doc.Studies, ExportStudy(st, true))
	}
	return doc
}

// ExportStudy converts st to a document, with its series when withSeries.
func ExportStudy(st *record.Study, withSeries bool) StudyDoc {
	doc := StudyDoc{
		UID:         st.StudyUID,
		Description: st.Description,
		Label:       resolve.StudyLabel(st),
		CompleteRT:  resolve.IsCompleteRTStudy(st),
	}
	if !withSeries {
		return doc
	}
	for _, s := range st.AllSeries() {
		sd := SeriesDoc{
			UID:                         s.SeriesUID,
			Description:                 s.Description,
			Role:                        s.Role.String(),
			Type:                        s.Type().String(),
			Label:                       resolve.SeriesLabel(s),
			FrameOfReferenceUID:         s.FrameOfReferenceUID,
			ReferencedImageSeriesUID:    s.ReferencedImageSeriesUID,
			ReferencedRTSSInstanceUID:   s.ReferencedRTSSInstanceUID,
			ReferencedRTPlanInstanceUID: s.ReferencedRTPlanInstanceUID,
		}
		for _, inst := range s.Instances() {
			sd.Instances = append(sd.Instances, InstanceDoc{
				UID:      inst.InstanceUID,
				ClassUID: inst.ClassUID,
				Modality: inst.Modality,
				Path:     inst.Path,
			})
		}
		doc.Series = append(doc.Series, sd)
	}
	return doc
}

// ExportTree converts a resolved study to a document.
func ExportTree(st *record.Study, nodes []*resolve.Node) TreeDoc {
	return TreeDoc{Study: ExportStudy(st, false), Nodes: exportNodes(nodes)}
}

func exportNodes(nodes []*resolve.Node) []NodeDoc {
	out := make([]NodeDoc, 0, len(nodes))
	for _, n := range nodes {
		nd := NodeDoc{Kind: n.Kind.String(), Label: n.Label(), Children: exportNodes(n.Children)}
		if n.Kind == resolve.KindSeries {
			nd.SeriesUID = n.Series.SeriesUID
			nd.Files = FilesOfSeries(n.Series)
		}
		if len(nd.Children) == 0 {
			nd.Children = nil
		}
		out = append(out, nd)
	}
	return out
}

// Format is an output format for documents.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Encode writes v to w as JSON or YAML.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot be encoded as a document", f)
	}
}
