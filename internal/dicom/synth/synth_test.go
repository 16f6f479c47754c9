package synth

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func stringValue(t *testing.T, ds dicom.Dataset, tg tag.Tag) string {
	t.Helper()
	elem, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("find %v: %v", tg, err)
	}
	v, ok := elem.Value.GetValue().([]string)
	if !ok || len(v) == 0 {
		t.Fatalf("tag %v has no string value", tg)
	}
	return strings.TrimSpace(v[0])
}

func TestNewUID(t *testing.T) {
	a, b := NewUID(), NewUID()
	if a == b {
		t.Error("two UIDs should differ")
	}
	for _, uid := range []string{a, b} {
		if !strings.HasPrefix(uid, "2.25.") {
			t.Errorf("UID %q should start with 2.25.", uid)
		}
		if len(uid) > 64 {
			t.Errorf("UID %q longer than 64 characters", uid)
		}
	}
}

func TestGenerateRTStudy_Basic(t *testing.T) {
	dir := t.TempDir()
	var calls, lastTotal int
	st, err := GenerateRTStudy(Options{
		OutputDir:        dir,
		Seed:             42,
		Slices:           4,
		Width:            32,
		Height:           32,
		Quiet:            true,
		ProgressCallback: func(current, total int) { calls++; lastTotal = total },
	})
	if err != nil {
		t.Fatalf("GenerateRTStudy() error = %v", err)
	}

	if len(st.Files) != 4+3 {
		t.Fatalf("wrote %d files, want 7", len(st.Files))
	}
	if calls != 7 || lastTotal != 7 {
		t.Errorf("progress called %d times with total %d, want 7/7", calls, lastTotal)
	}
	for _, f := range st.Files {
		if _, err := os.Stat(f.Path); err != nil {
			t.Errorf("missing file %s: %v", f.Path, err)
		}
		if f.PatientID != st.PatientID || f.StudyUID != st.StudyUID {
			t.Errorf("file %s has patient %q study %q", f.Path, f.PatientID, f.StudyUID)
		}
	}
	if len(st.Ignored) != 0 {
		t.Errorf("Ignored = %v, want none", st.Ignored)
	}

	modalityCount := map[modalities.Modality]int{}
	for _, f := range st.Files {
		modalityCount[f.Modality]++
	}
	want := map[modalities.Modality]int{modalities.CT: 4, modalities.RTSTRUCT: 1, modalities.RTPLAN: 1, modalities.RTDOSE: 1}
	for m, n := range want {
		if modalityCount[m] != n {
			t.Errorf("%s files = %d, want %d", m, modalityCount[m], n)
		}
	}
}

func TestGenerateRTStudy_Deterministic(t *testing.T) {
	a, err := GenerateRTStudy(Options{OutputDir: t.TempDir(), Seed: 7, Slices: 1, Width: 16, Height: 16, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateRTStudy(Options{OutputDir: t.TempDir(), Seed: 7, Slices: 1, Width: 16, Height: 16, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	if a.StudyUID != b.StudyUID || a.PatientID != b.PatientID || a.PlanInstanceUID != b.PlanInstanceUID {
		t.Errorf("same seed produced different studies: %+v vs %+v", a, b)
	}
}

func TestGenerateRTStudy_References(t *testing.T) {
	dir := t.TempDir()
	st, err := GenerateRTStudy(Options{OutputDir: dir, Seed: 3, Slices: 2, Width: 16, Height: 16, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}

	var planPath, dosePath, ctPath string
	for _, f := range st.Files {
		switch f.Modality {
		case modalities.RTPLAN:
			planPath = f.Path
		case modalities.RTDOSE:
			dosePath = f.Path
		case modalities.CT:
			ctPath = f.Path
		}
	}

	plan, err := dicom.ParseFile(planPath, nil)
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if got := stringValue(t, plan, tag.SOPClassUID); got != modalities.RTPlanStorage {
		t.Errorf("plan SOPClassUID = %s", got)
	}
	if _, err := plan.FindElementByTag(tagReferencedStructureSetSequence); err != nil {
		t.Errorf("plan has no ReferencedStructureSetSequence: %v", err)
	}

	dose, err := dicom.ParseFile(dosePath, nil)
	if err != nil {
		t.Fatalf("parse dose: %v", err)
	}
	if _, err := dose.FindElementByTag(tagReferencedRTPlanSequence); err != nil {
		t.Errorf("dose has no ReferencedRTPlanSequence: %v", err)
	}

	ct, err := dicom.ParseFile(ctPath, nil)
	if err != nil {
		t.Fatalf("parse CT: %v", err)
	}
	if got := stringValue(t, ct, tag.FrameOfReferenceUID); got != st.FrameOfReferenceUID {
		t.Errorf("CT FrameOfReferenceUID = %s, want %s", got, st.FrameOfReferenceUID)
	}
	if _, err := ct.FindElementByTag(tag.PixelData); err != nil {
		t.Errorf("CT has no pixel data: %v", err)
	}
}

func TestGenerateRTStudy_Extras(t *testing.T) {
	dir := t.TempDir()
	st, err := GenerateRTStudy(Options{
		OutputDir:  dir,
		Seed:       11,
		Slices:     2,
		Width:      16,
		Height:     16,
		WithPET:    true,
		OrphanPlan: true,
		OrphanDose: true,
		Anonymous:  2,
		Junk:       true,
		DICOMDIR:   true,
		Workers:    2,
		Quiet:      true,
	})
	if err != nil {
		t.Fatalf("GenerateRTStudy() error = %v", err)
	}

	// 2 CT + 2 PT + struct, plan, dose + orphan plan, orphan dose + 2 anonymous
	if len(st.Files) != 11 {
		t.Errorf("wrote %d files, want 11", len(st.Files))
	}
	if st.PTSeriesUID == "" || st.OrphanPlanSeriesUID == "" || st.OrphanDoseSeriesUID == "" {
		t.Errorf("missing optional series: %+v", st)
	}

	anonymous := 0
	for _, f := range st.Files {
		if f.PatientID == "" {
			anonymous++
		}
	}
	if anonymous != 2 {
		t.Errorf("anonymous files = %d, want 2", anonymous)
	}

	var hasDICOMDIR, hasHidden bool
	for _, p := range st.Ignored {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("ignored file %s missing: %v", p, err)
		}
		if filepath.Base(p) == "DICOMDIR" {
			hasDICOMDIR = true
		}
		if strings.Contains(p, string(filepath.Separator)+".") {
			hasHidden = true
		}
	}
	if !hasDICOMDIR || !hasHidden {
		t.Errorf("Ignored = %v, want DICOMDIR and hidden entries", st.Ignored)
	}

	ds, err := dicom.ParseFile(filepath.Join(dir, "DICOMDIR"), nil)
	if err != nil {
		t.Fatalf("parse DICOMDIR: %v", err)
	}
	seq, err := ds.FindElementByTag(tag.DirectoryRecordSequence)
	if err != nil {
		t.Fatalf("DICOMDIR has no record sequence: %v", err)
	}
	// PATIENT + STUDY + 7 SERIES + 9 leaf records, anonymous objects excluded
	if items := seq.Value.GetValue().([]*dicom.SequenceItemValue); len(items) != 18 {
		t.Errorf("DICOMDIR has %d records, want 18", len(items))
	}
}

func TestGenerateRTStudy_InvalidOptions(t *testing.T) {
	if _, err := GenerateRTStudy(Options{Quiet: true}); err == nil {
		t.Error("expected error without output directory")
	}
	if _, err := GenerateRTStudy(Options{OutputDir: t.TempDir(), Anonymous: -1, Quiet: true}); err == nil {
		t.Error("expected error for negative anonymous count")
	}
}

func TestTruncatedDICOM(t *testing.T) {
	data := truncatedDICOM()
	if !bytes.Equal(data[128:132], []byte("DICM")) {
		t.Fatalf("magic missing: %q", data[128:132])
	}
	path := filepath.Join(t.TempDir(), "t.dcm")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := dicom.ParseFile(path, nil); err == nil {
		t.Error("truncated file should not parse")
	}
}

func TestDirectoryRecordType(t *testing.T) {
	tests := []struct {
		m    modalities.Modality
		want string
	}{
		{modalities.CT, "IMAGE"},
		{modalities.PT, "IMAGE"},
		{modalities.RTSTRUCT, "RT STRUCTURE SET"},
		{modalities.RTPLAN, "RT PLAN"},
		{modalities.RTDOSE, "RT DOSE"},
	}
	for _, tt := range tests {
		if got := directoryRecordType(tt.m); got != tt.want {
			t.Errorf("directoryRecordType(%s) = %q, want %q", tt.m, got, tt.want)
		}
	}
}
