package scan

import (
	"github.com/google/uuid"
	"github.com/mrsinham/dicomtree/internal/dicom/decode"
	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
)

// syntheticPatientID returns a fresh identifier for a record without one.
func syntheticPatientID() string {
	return "ANON-" + uuid.NewString()
}

// Insert files rec into c, creating the patient, study and series as
// needed. The first record of a series fixes its description, frame of
// reference, role and reference fields. A record without PatientID gets
// newID(), so such records never share a patient. Insert returns false when
// the series already holds an instance with the same InstanceUID.
func Insert(c *record.Collection, rec *decode.Record, newID func() string) bool {
	pid := rec.PatientID
	if pid == "" {
		pid = newID()
	}

	p, ok := c.Patient(pid)
	if !ok {
		p = record.NewPatient(pid, rec.PatientName)
		c.AddPatient(p)
	}

	st, ok := p.Study(rec.StudyUID)
	if !ok {
		st = record.NewStudy(rec.StudyUID, rec.StudyDescription)
		p.AddStudy(st)
	}

	s, ok := st.Series(rec.SeriesUID)
	if !ok {
		s = record.NewSeries(rec.SeriesUID, modalities.RoleOf(rec.Modality))
		s.Description = rec.SeriesDescription
		s.FrameOfReferenceUID = rec.FrameOfReferenceUID
		s.ReferencedImageSeriesUID = rec.ReferencedImageSeriesUID
		s.ReferencedRTSSInstanceUID = rec.ReferencedRTSSInstanceUID
		s.ReferencedRTPlanInstanceUID = rec.ReferencedRTPlanInstanceUID
		st.AddSeries(s)
	}

	return s.AddInstance(&record.Instance{
		Path:        rec.Path,
		InstanceUID: rec.InstanceUID,
		ClassUID:    rec.ClassUID,
		Modality:    rec.Modality,
	})
}
