package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/resolve"
	"github.com/mrsinham/dicomtree/internal/scan"
)

func testCollection() *record.Collection {
	c := record.NewCollection()
	p := record.NewPatient("P1", "DOE^JANE")
	c.AddPatient(p)
	st := record.NewStudy("S1", "Prostate")
	p.AddStudy(st)

	ct := record.NewSeries("ct", modalities.RoleImage)
	ct.Description = "Planning CT"
	ct.FrameOfReferenceUID = "F1"
	ct.AddInstance(&record.Instance{Path: "/d/ct1", InstanceUID: "ct1", ClassUID: modalities.CTImageStorage, Modality: "CT"})
	st.AddSeries(ct)

	dose := record.NewSeries("dose", modalities.RoleRTDose)
	dose.Description = "Dose"
	dose.FrameOfReferenceUID = "F1"
	dose.ReferencedRTPlanInstanceUID = "gone"
	dose.AddInstance(&record.Instance{Path: "/d/d1", InstanceUID: "d1", ClassUID: modalities.RTDoseStorage, Modality: "RTDOSE"})
	st.AddSeries(dose)
	return c
}

func TestStudyTree(t *testing.T) {
	c := testCollection()
	p, _ := c.Patient("P1")
	st := p.Studies()[0]

	out := StudyTree(st, resolve.Resolve(st)).String()
	for _, want := range []string{
		"Study: Prostate (DICOM-RT: N)",
		"Series: Planning CT (CT, 1 images)",
		resolve.NoRTStructLabel,
		resolve.NoRTPlanLabel,
		"Series: Dose (RTDOSE, 1 images)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}

	// placeholders come between the image series and the dose
	if strings.Index(out, resolve.NoRTStructLabel) > strings.Index(out, resolve.NoRTPlanLabel) ||
		strings.Index(out, resolve.NoRTPlanLabel) > strings.Index(out, "Series: Dose") {
		t.Errorf("unexpected order:\n%s", out)
	}
}

func TestRenderCollection(t *testing.T) {
	out := RenderCollection(testCollection())
	if !strings.HasPrefix(out, "Patient: DOE^JANE (P1)") {
		t.Errorf("expected patient label first, got:\n%s", out)
	}
	if RenderCollection(record.NewCollection()) != "" {
		t.Error("empty collection should render nothing")
	}
}

func TestOptions(t *testing.T) {
	c := testCollection()
	opts := PatientOptions(c)
	if len(opts) != 1 || opts[0].Value != "P1" || !strings.Contains(opts[0].Key, "1 studies") {
		t.Errorf("PatientOptions() = %+v", opts)
	}

	p, _ := c.Patient("P1")
	sopts := StudyOptions(p)
	if len(sopts) != 1 || sopts[0].Value != "S1" || sopts[0].Key != "Study: Prostate (DICOM-RT: N)" {
		t.Errorf("StudyOptions() = %+v", sopts)
	}
}

func TestBrowse_EmptyCollection(t *testing.T) {
	if err := Browse(record.NewCollection(), &strings.Builder{}); err != ErrEmptyCollection {
		t.Errorf("expected ErrEmptyCollection, got %v", err)
	}
}

func TestScanModel_Progress(t *testing.T) {
	m := NewScanModel("/data", func() {})
	m.Update(ProgressMsg{Current: 5, Total: 10})

	view := m.View()
	if !strings.Contains(view, "50%") || !strings.Contains(view, "File 5/10") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if !strings.Contains(view, "Scanning /data") {
		t.Errorf("view missing root:\n%s", view)
	}
}

func TestScanModel_CtrlCCancelsOnce(t *testing.T) {
	calls := 0
	m := NewScanModel("/data", func() { calls++ })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("ctrl+c should wait for the scan instead of quitting")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if calls != 1 || !m.Cancelled() {
		t.Errorf("cancel called %d times, cancelled=%v", calls, m.Cancelled())
	}
	if !strings.Contains(m.View(), "Cancelling") {
		t.Error("view should show cancellation")
	}

	_, cmd = m.Update(doneMsg{outcome: scan.Outcome{Status: scan.StatusCancelled}})
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if m.outcome.Status != scan.StatusCancelled {
		t.Errorf("outcome = %+v", m.outcome)
	}
}

func TestRunScan(t *testing.T) {
	var out strings.Builder
	want := scan.Outcome{Status: scan.StatusCompleted, Summary: scan.Summary{Decoded: 3}}

	got, err := RunScan(context.Background(), "/data", func(ctx context.Context, progress scan.ProgressFunc) (scan.Outcome, error) {
		for i := 1; i <= 3; i++ {
			progress(i, 3)
		}
		return want, nil
	}, tea.WithInput(nil), tea.WithOutput(&out))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary.Decoded != 3 || got.Status != scan.StatusCompleted {
		t.Errorf("RunScan() = %+v", got)
	}
}
