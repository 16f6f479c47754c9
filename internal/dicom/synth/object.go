// Package synth writes synthetic radiotherapy studies: a planning CT, an
// optional PET series, and the RT Structure Set, Plan and Dose objects that
// reference them. The output is meant for exercising the scanner and the
// resolver, not for clinical use.
package synth

import (
	"fmt"
	"math/big"
	"os"

	"github.com/google/uuid"
	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// RT tags, addressed by number.
var (
	tagStructureSetLabel                  = tag.Tag{Group: 0x3006, Element: 0x0002}
	tagReferencedFrameOfReferenceSequence = tag.Tag{Group: 0x3006, Element: 0x0010}
	tagRTReferencedStudySequence          = tag.Tag{Group: 0x3006, Element: 0x0012}
	tagRTReferencedSeriesSequence         = tag.Tag{Group: 0x3006, Element: 0x0014}
	tagRTPlanLabel                        = tag.Tag{Group: 0x300A, Element: 0x0002}
	tagReferencedRTPlanSequence           = tag.Tag{Group: 0x300C, Element: 0x0002}
	tagReferencedStructureSetSequence     = tag.Tag{Group: 0x300C, Element: 0x0060}
	tagDoseUnits                          = tag.Tag{Group: 0x3004, Element: 0x0002}
	tagDoseType                           = tag.Tag{Group: 0x3004, Element: 0x0004}
	tagReferencedSOPClassUID              = tag.Tag{Group: 0x0008, Element: 0x1150}
	tagReferencedSOPInstanceUID           = tag.Tag{Group: 0x0008, Element: 0x1155}
)

// Object describes one DICOM object to write. Empty strings leave the
// corresponding element out of the file.
type Object struct {
	PatientID   string
	PatientName string
	OmitPatient bool // drop PatientID and PatientName entirely

	StudyUID         string
	StudyDescription string

	SeriesUID         string
	SeriesDescription string
	SeriesNumber      int

	InstanceUID    string
	InstanceNumber int
	Modality       modalities.Modality
	ClassUID       string // defaults from Modality

	FrameOfReferenceUID string

	ReferencedImageSeriesUID    string // RTSTRUCT
	ReferencedRTSSInstanceUID   string // RTPLAN, RTDOSE
	ReferencedRTPlanInstanceUID string // RTDOSE

	// Label is written as StructureSetLabel or RTPlanLabel.
	Label string
}

// NewUID returns a fresh UID under the 2.25 root (UUID-derived).
func NewUID() string {
	return uuidToUID(uuid.New())
}

func uuidToUID(u uuid.UUID) string {
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}

// classUIDFor returns the storage class for a modality.
func classUIDFor(m modalities.Modality) string {
	switch m {
	case modalities.RTSTRUCT:
		return modalities.RTStructureSetStorage
	case modalities.RTPLAN:
		return modalities.RTPlanStorage
	case modalities.RTDOSE:
		return modalities.RTDoseStorage
	default:
		return modalities.GetGenerator(m).SOPClassUID()
	}
}

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// appendString appends t only when value is set.
func appendString(elems []*dicom.Element, t tag.Tag, value string) []*dicom.Element {
	if value == "" {
		return elems
	}
	return append(elems, mustNewElement(t, []string{value}))
}

// Elements builds the dataset elements of obj, without pixel data.
func (obj Object) Elements() []*dicom.Element {
	classUID := obj.ClassUID
	if classUID == "" {
		classUID = classUIDFor(obj.Modality)
	}

	elems := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{classUID}),
	}
	elems = appendString(elems, tag.MediaStorageSOPInstanceUID, obj.InstanceUID)
	elems = appendString(elems, tag.SOPClassUID, classUID)
	elems = appendString(elems, tag.SOPInstanceUID, obj.InstanceUID)
	elems = appendString(elems, tag.Modality, string(obj.Modality))
	if !obj.OmitPatient {
		elems = appendString(elems, tag.PatientName, obj.PatientName)
		elems = appendString(elems, tag.PatientID, obj.PatientID)
	}
	elems = appendString(elems, tag.StudyInstanceUID, obj.StudyUID)
	elems = appendString(elems, tag.StudyDescription, obj.StudyDescription)
	elems = appendString(elems, tag.SeriesInstanceUID, obj.SeriesUID)
	elems = appendString(elems, tag.SeriesDescription, obj.SeriesDescription)
	if obj.SeriesNumber > 0 {
		elems = append(elems, mustNewElement(tag.SeriesNumber, []string{fmt.Sprintf("%d", obj.SeriesNumber)}))
	}
	if obj.InstanceNumber > 0 {
		elems = append(elems, mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", obj.InstanceNumber)}))
	}

	switch obj.Modality {
	case modalities.RTSTRUCT:
		elems = appendString(elems, tagStructureSetLabel, obj.Label)
		elems = append(elems, obj.structReferences()...)
	case modalities.RTPLAN:
		elems = appendString(elems, tag.FrameOfReferenceUID, obj.FrameOfReferenceUID)
		elems = appendString(elems, tagRTPlanLabel, obj.Label)
		elems = appendReference(elems, tagReferencedStructureSetSequence, modalities.RTStructureSetStorage, obj.ReferencedRTSSInstanceUID)
	case modalities.RTDOSE:
		elems = appendString(elems, tag.FrameOfReferenceUID, obj.FrameOfReferenceUID)
		elems = append(elems,
			mustNewElement(tagDoseUnits, []string{"GY"}),
			mustNewElement(tagDoseType, []string{"PHYSICAL"}),
		)
		elems = appendReference(elems, tagReferencedRTPlanSequence, modalities.RTPlanStorage, obj.ReferencedRTPlanInstanceUID)
		elems = appendReference(elems, tagReferencedStructureSetSequence, modalities.RTStructureSetStorage, obj.ReferencedRTSSInstanceUID)
	default:
		elems = appendString(elems, tag.FrameOfReferenceUID, obj.FrameOfReferenceUID)
	}
	return elems
}

// structReferences builds ReferencedFrameOfReferenceSequence, which carries
// both the frame of reference and the contoured image series of an RTSTRUCT.
func (obj Object) structReferences() []*dicom.Element {
	if obj.FrameOfReferenceUID == "" && obj.ReferencedImageSeriesUID == "" {
		return nil
	}

	var forItem []*dicom.Element
	forItem = appendString(forItem, tag.FrameOfReferenceUID, obj.FrameOfReferenceUID)
	if obj.ReferencedImageSeriesUID != "" {
		seriesItem := []*dicom.Element{
			mustNewElement(tag.SeriesInstanceUID, []string{obj.ReferencedImageSeriesUID}),
		}
		studyItem := []*dicom.Element{
			mustNewElement(tagReferencedSOPClassUID, []string{"1.2.840.10008.3.1.2.3.1"}),
			mustNewElement(tagReferencedSOPInstanceUID, []string{obj.StudyUID}),
			mustNewElement(tagRTReferencedSeriesSequence, [][]*dicom.Element{seriesItem}),
		}
		forItem = append(forItem, mustNewElement(tagRTReferencedStudySequence, [][]*dicom.Element{studyItem}))
	}
	return []*dicom.Element{mustNewElement(tagReferencedFrameOfReferenceSequence, [][]*dicom.Element{forItem})}
}

// appendReference appends a one-item reference sequence when uid is set.
func appendReference(elems []*dicom.Element, seq tag.Tag, classUID, uid string) []*dicom.Element {
	if uid == "" {
		return elems
	}
	item := []*dicom.Element{
		mustNewElement(tagReferencedSOPClassUID, []string{classUID}),
		mustNewElement(tagReferencedSOPInstanceUID, []string{uid}),
	}
	return append(elems, mustNewElement(seq, [][]*dicom.Element{item}))
}

// WriteObject writes obj to path without pixel data.
func WriteObject(path string, obj Object) error {
	return writeDatasetToFile(path, dicom.Dataset{Elements: obj.Elements()})
}

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}
