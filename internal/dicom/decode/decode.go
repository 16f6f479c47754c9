// Package decode turns a file on disk into the flat record the scanner
// files into the hierarchy.
package decode

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrNotDICOM is returned for files that carry no parsable DICOM dataset.
	ErrNotDICOM = errors.New("decode: not a DICOM object")
	// ErrMissingUID is returned when a study, series or instance UID is absent.
	ErrMissingUID = errors.New("decode: missing required UID")
)

// RT reference tags, addressed by number.
var (
	tagReferencedFrameOfReferenceSequence = tag.Tag{Group: 0x3006, Element: 0x0010}
	tagRTReferencedStudySequence          = tag.Tag{Group: 0x3006, Element: 0x0012}
	tagRTReferencedSeriesSequence         = tag.Tag{Group: 0x3006, Element: 0x0014}
	tagReferencedRTPlanSequence           = tag.Tag{Group: 0x300C, Element: 0x0002}
	tagReferencedStructureSetSequence     = tag.Tag{Group: 0x300C, Element: 0x0060}
	tagReferencedSOPInstanceUID           = tag.Tag{Group: 0x0008, Element: 0x1155}
)

// Record is the subset of a DICOM object needed to place it in the
// hierarchy. Empty strings stand for absent values.
type Record struct {
	Path string

	PatientID   string
	PatientName string

	StudyUID         string
	StudyDescription string

	SeriesUID         string
	SeriesDescription string

	InstanceUID string
	ClassUID    string
	Modality    string

	FrameOfReferenceUID string

	ReferencedImageSeriesUID    string
	ReferencedRTSSInstanceUID   string
	ReferencedRTPlanInstanceUID string
}

// Decoder reads one file. Any error means the file is not a usable object.
type Decoder interface {
	Decode(path string) (*Record, error)
}

// FileDecoder decodes DICOM Part 10 files with github.com/suyashkumar/dicom.
// Pixel data is never read.
type FileDecoder struct{}

// NewFileDecoder returns a decoder reading files from disk.
func NewFileDecoder() *FileDecoder {
	return &FileDecoder{}
}

// Decode parses the file at path and extracts its record.
func (d *FileDecoder) Decode(path string) (*Record, error) {
	elems, err := parseTolerant(path)
	if err != nil {
		return nil, err
	}

	rec := fromElements(elems)
	rec.Path = path
	if rec.StudyUID == "" || rec.SeriesUID == "" || rec.InstanceUID == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingUID)
	}
	return rec, nil
}

// parseTolerant parses a DICOM file element-by-element, keeping every element
// read before the first error. Files that yield nothing are not DICOM.
func parseTolerant(path string) ([]*dicom.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotDICOM, err)
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			break
		}
		elements = append(elements, elem)
	}

	meta := p.GetMetadata()
	elements = append(meta.Elements, elements...)
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w: no elements parsed", path, ErrNotDICOM)
	}
	return elements, nil
}

// fromElements builds a record from a flat element list.
func fromElements(elems []*dicom.Element) *Record {
	rec := &Record{
		PatientID:           getString(elems, tag.PatientID),
		PatientName:         getString(elems, tag.PatientName),
		StudyUID:            getString(elems, tag.StudyInstanceUID),
		StudyDescription:    getString(elems, tag.StudyDescription),
		SeriesUID:           getString(elems, tag.SeriesInstanceUID),
		SeriesDescription:   getString(elems, tag.SeriesDescription),
		InstanceUID:         getString(elems, tag.SOPInstanceUID),
		ClassUID:            getString(elems, tag.SOPClassUID),
		Modality:            strings.ToUpper(getString(elems, tag.Modality)),
		FrameOfReferenceUID: getString(elems, tag.FrameOfReferenceUID),
	}
	if rec.InstanceUID == "" {
		rec.InstanceUID = getString(elems, tag.MediaStorageSOPInstanceUID)
	}
	if rec.ClassUID == "" {
		rec.ClassUID = getString(elems, tag.MediaStorageSOPClassUID)
	}

	switch rec.Modality {
	case "RTSTRUCT":
		for _, forItem := range sequenceItems(elems, tagReferencedFrameOfReferenceSequence) {
			if rec.FrameOfReferenceUID == "" {
				rec.FrameOfReferenceUID = getString(forItem, tag.FrameOfReferenceUID)
			}
			for _, studyItem := range sequenceItems(forItem, tagRTReferencedStudySequence) {
				for _, seriesItem := range sequenceItems(studyItem, tagRTReferencedSeriesSequence) {
					if rec.ReferencedImageSeriesUID == "" {
						rec.ReferencedImageSeriesUID = getString(seriesItem, tag.SeriesInstanceUID)
					}
				}
			}
		}
	case "RTPLAN":
		rec.ReferencedRTSSInstanceUID = firstReferencedSOP(elems, tagReferencedStructureSetSequence)
	case "RTDOSE":
		rec.ReferencedRTPlanInstanceUID = firstReferencedSOP(elems, tagReferencedRTPlanSequence)
		rec.ReferencedRTSSInstanceUID = firstReferencedSOP(elems, tagReferencedStructureSetSequence)
	}
	return rec
}

// firstReferencedSOP returns the first ReferencedSOPInstanceUID found in the
// items of the given sequence.
func firstReferencedSOP(elems []*dicom.Element, seq tag.Tag) string {
	for _, item := range sequenceItems(elems, seq) {
		if uid := getString(item, tagReferencedSOPInstanceUID); uid != "" {
			return uid
		}
	}
	return ""
}

func findElement(elems []*dicom.Element, t tag.Tag) *dicom.Element {
	for _, e := range elems {
		if e != nil && e.Tag == t {
			return e
		}
	}
	return nil
}

// getString returns the first string value of a tag, or "" if absent.
func getString(elems []*dicom.Element, t tag.Tag) string {
	elem := findElement(elems, t)
	if elem == nil || elem.Value == nil {
		return ""
	}

	switch v := elem.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimRight(strings.TrimSpace(v[0]), "\x00")
		}
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

// sequenceItems returns the element lists of every item of a sequence.
func sequenceItems(elems []*dicom.Element, t tag.Tag) [][]*dicom.Element {
	elem := findElement(elems, t)
	if elem == nil || elem.Value == nil {
		return nil
	}
	items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}

	out := make([][]*dicom.Element, 0, len(items))
	for _, item := range items {
		if sub, ok := item.GetValue().([]*dicom.Element); ok {
			out = append(out, sub)
		}
	}
	return out
}
