package synth

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const mediaStorageDirectoryStorage = "1.2.840.10008.1.3.10"

// directoryRecordType maps a modality to its DICOMDIR leaf record type.
func directoryRecordType(m modalities.Modality) string {
	switch m {
	case modalities.RTSTRUCT:
		return "RT STRUCTURE SET"
	case modalities.RTPLAN:
		return "RT PLAN"
	case modalities.RTDOSE:
		return "RT DOSE"
	default:
		return "IMAGE"
	}
}

// writeDICOMDIR indexes files in a DICOMDIR at the root of dir. Records are
// emitted depth first; offsets are left at zero since nothing here follows
// them.
func writeDICOMDIR(dir string, files []GeneratedFile) (string, error) {
	var items [][]*dicom.Element
	record := func(recordType string, extra ...*dicom.Element) {
		elems := []*dicom.Element{
			mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
			mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
			mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
			mustNewElement(tag.DirectoryRecordType, []string{recordType}),
		}
		items = append(items, append(elems, extra...))
	}

	var lastPatient, lastStudy, lastSeries string
	for _, f := range files {
		if f.PatientID == "" {
			continue
		}
		if f.PatientID != lastPatient {
			record("PATIENT", mustNewElement(tag.PatientID, []string{f.PatientID}))
			lastPatient, lastStudy, lastSeries = f.PatientID, "", ""
		}
		if f.StudyUID != lastStudy {
			record("STUDY", mustNewElement(tag.StudyInstanceUID, []string{f.StudyUID}))
			lastStudy, lastSeries = f.StudyUID, ""
		}
		if f.SeriesUID != lastSeries {
			record("SERIES",
				mustNewElement(tag.SeriesInstanceUID, []string{f.SeriesUID}),
				mustNewElement(tag.Modality, []string{string(f.Modality)}),
				mustNewElement(tag.SeriesNumber, []string{fmt.Sprintf("%d", f.SeriesNumber)}),
			)
			lastSeries = f.SeriesUID
		}

		rel, err := filepath.Rel(dir, f.Path)
		if err != nil {
			return "", fmt.Errorf("relative path of %s: %w", f.Path, err)
		}
		record(directoryRecordType(f.Modality),
			mustNewElement(tag.ReferencedFileID, strings.Split(filepath.ToSlash(rel), "/")),
			mustNewElement(tag.ReferencedSOPClassUIDInFile, []string{f.SOPClassUID}),
			mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{f.SOPInstanceUID}),
			mustNewElement(tag.ReferencedTransferSyntaxUIDInFile, []string{explicitVRLittleEndian}),
		)
	}

	filesetID := strings.ToUpper(filepath.Base(dir))
	if len(filesetID) > 16 {
		filesetID = filesetID[:16]
	}
	elems := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{mediaStorageDirectoryStorage}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{NewUID()}),
		mustNewElement(tag.FileSetID, []string{filesetID}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
	}
	if len(items) > 0 {
		elems = append(elems, mustNewElement(tag.DirectoryRecordSequence, items))
	}

	path := filepath.Join(dir, "DICOMDIR")
	if err := writeDatasetToFile(path, dicom.Dataset{Elements: elems}); err != nil {
		return "", err
	}
	return path, nil
}
