package query

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/dicom/synth"
	"github.com/mrsinham/dicomtree/internal/resolve"
	"github.com/mrsinham/dicomtree/internal/scan"
	"gopkg.in/yaml.v3"
)

// fixture builds one patient with one study:
// CT(ct1, ct2) <- RTSTRUCT(rs1) <- RTPLAN(p1) <- RTDOSE(d1), plus an
// orphan plan (p2) placed top level.
func fixture() (*record.Collection, *record.Study) {
	c := record.NewCollection()
	p := record.NewPatient("P1", "DOE^JANE")
	c.AddPatient(p)
	st := record.NewStudy("S1", "Head and neck")
	p.AddStudy(st)

	add := func(uid string, role modalities.Role, modality, class string, refs [3]string, instances ...string) {
		s := record.NewSeries(uid, role)
		s.Description = uid
		s.ReferencedImageSeriesUID, s.ReferencedRTSSInstanceUID, s.ReferencedRTPlanInstanceUID = refs[0], refs[1], refs[2]
		for _, i := range instances {
			s.AddInstance(&record.Instance{Path: "/data/" + i, InstanceUID: i, ClassUID: class, Modality: modality})
		}
		st.AddSeries(s)
	}
	add("ct", modalities.RoleImage, "CT", modalities.CTImageStorage, [3]string{}, "ct1", "ct2")
	add("rs", modalities.RoleRTStruct, "RTSTRUCT", modalities.RTStructureSetStorage, [3]string{"ct", "", ""}, "rs1")
	add("plan", modalities.RoleRTPlan, "RTPLAN", modalities.RTPlanStorage, [3]string{"", "rs1", ""}, "p1")
	add("orphan", modalities.RoleRTPlan, "RTPLAN", modalities.RTPlanStorage, [3]string{"", "missing", ""}, "p2")
	add("dose", modalities.RoleRTDose, "RTDOSE", modalities.RTDoseStorage, [3]string{"", "", "p1"}, "d1")
	return c, st
}

func TestFilesOfCollection(t *testing.T) {
	c, st := fixture()
	want := []string{"/data/ct1", "/data/ct2", "/data/rs1", "/data/p1", "/data/p2", "/data/d1"}
	if got := FilesOfCollection(c); !reflect.DeepEqual(got, want) {
		t.Errorf("FilesOfCollection() = %v, want %v", got, want)
	}
	if got := FilesOfStudy(st); !reflect.DeepEqual(got, want) {
		t.Errorf("FilesOfStudy() = %v, want %v", got, want)
	}
}

func TestFilesOf_Subtrees(t *testing.T) {
	_, st := fixture()
	nodes := resolve.Resolve(st)
	if len(nodes) != 2 {
		t.Fatalf("expected ct and orphan plan at top level, got %d nodes", len(nodes))
	}

	// tree order: ct, rs, plan, dose
	if got, want := FilesOf(nodes[0]), []string{"/data/ct1", "/data/ct2", "/data/rs1", "/data/p1", "/data/d1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FilesOf(ct) = %v, want %v", got, want)
	}
	rs := nodes[0].Children[0]
	if got, want := FilesOf(rs), []string{"/data/rs1", "/data/p1", "/data/d1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FilesOf(rs) = %v, want %v", got, want)
	}
	if got := FilesOf(nodes...); len(got) != 6 {
		t.Errorf("FilesOf(all) returned %d paths, want 6", len(got))
	}
	if got := FilesOf(&resolve.Node{Kind: resolve.KindPlaceholder}); len(got) != 0 {
		t.Errorf("FilesOf(placeholder) = %v, want none", got)
	}
}

func TestLookups(t *testing.T) {
	c, st := fixture()

	if LookupPatient(c, "P1") == nil {
		t.Error("LookupPatient(P1) = nil")
	}
	if LookupPatient(c, "nope") != nil {
		t.Error("LookupPatient(nope) should be nil")
	}
	if LookupStudy(c, "P1", "S1") != st {
		t.Error("LookupStudy(P1, S1) did not return the study")
	}
	if LookupStudy(c, "nope", "S1") != nil || LookupStudy(c, "P1", "nope") != nil {
		t.Error("LookupStudy should be nil for unknown keys")
	}
	if s := LookupSeries(st, "rs"); s == nil || s.Role != modalities.RoleRTStruct {
		t.Errorf("LookupSeries(rs) = %v", s)
	}
	if LookupSeries(st, "nope") != nil {
		t.Error("LookupSeries(nope) should be nil")
	}

	p, found, ok := FindStudy(c, "S1")
	if !ok || found != st || p.PatientID != "P1" {
		t.Errorf("FindStudy(S1) = %v, %v, %v", p, found, ok)
	}
	if _, _, ok := FindStudy(c, "nope"); ok {
		t.Error("FindStudy(nope) should fail")
	}
}

func TestExportTree(t *testing.T) {
	_, st := fixture()
	doc := ExportTree(st, resolve.Resolve(st))

	if doc.Study.UID != "S1" || !doc.Study.CompleteRT {
		t.Errorf("Study = %+v", doc.Study)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(doc.Nodes))
	}
	ct := doc.Nodes[0]
	if ct.Label != "Series: ct (CT, 2 images)" || ct.SeriesUID != "ct" || len(ct.Files) != 2 {
		t.Errorf("ct node = %+v", ct)
	}
	dose := ct.Children[0].Children[0].Children[0]
	if dose.SeriesUID != "dose" || dose.Children != nil {
		t.Errorf("dose node = %+v", dose)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, doc); err != nil {
		t.Fatal(err)
	}
	var back TreeDoc
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if back.Nodes[1].Kind != "series" || back.Nodes[1].SeriesUID != "orphan" {
		t.Errorf("orphan node = %+v", back.Nodes[1])
	}
}

func TestExportCollection_YAML(t *testing.T) {
	c, _ := fixture()
	doc := ExportCollection(c)
	if doc.Counts != (record.Counts{Patients: 1, Studies: 1, Series: 5, Instances: 6}) {
		t.Errorf("Counts = %+v", doc.Counts)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, FormatYAML, doc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"id: P1", "role: rtstruct", "referenced_rtss_instance_uid: rs1", "path: /data/d1"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}

	var back CollectionDoc
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if back.Patients[0].Studies[0].Series[0].Instances[1].UID != "ct2" {
		t.Errorf("round trip lost instance order: %+v", back.Patients[0].Studies[0].Series[0])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if err := Encode(&bytes.Buffer{}, FormatText, nil); err == nil {
		t.Error("Encode(text) should fail")
	}
}

func TestFilesOfCollection_MatchesDecodableInputs(t *testing.T) {
	dir := t.TempDir()
	study, err := synth.GenerateRTStudy(synth.Options{
		OutputDir:  dir,
		Seed:       9,
		Slices:     3,
		Width:      16,
		Height:     16,
		OrphanPlan: true,
		OrphanDose: true,
		Anonymous:  1,
		Junk:       true,
		DICOMDIR:   true,
		Quiet:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := scan.New(scan.Options{Workers: 2}).Scan(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	got := FilesOfCollection(out.Collection)
	want := study.Paths()
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilesOfCollection() =\n%v\nwant\n%v", got, want)
	}

	_, st, ok := FindStudy(out.Collection, study.StudyUID)
	if !ok {
		t.Fatal("generated study not found")
	}
	if !resolve.IsCompleteRTStudy(st) {
		t.Error("generated CT + RT study should be complete")
	}
	if got := FilesOf(resolve.Resolve(st)...); len(got) != len(FilesOfStudy(st)) {
		t.Errorf("tree covers %d files, study has %d", len(got), len(FilesOfStudy(st)))
	}
}
