package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/query"
	"github.com/mrsinham/dicomtree/internal/resolve"
)

// ErrEmptyCollection is returned by Browse when there is nothing to show.
var ErrEmptyCollection = errors.New("no patients found")

// PatientOptions lists the patients of c by label, keyed by patient ID.
func PatientOptions(c *record.Collection) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, p := range c.Patients() {
		label := fmt.Sprintf("%s, %d studies", resolve.PatientLabel(p), len(p.Studies()))
		opts = append(opts, huh.NewOption(label, p.PatientID))
	}
	return opts
}

// StudyOptions lists the studies of p by label, keyed by study UID.
func StudyOptions(p *record.Patient) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, st := range p.Studies() {
		opts = append(opts, huh.NewOption(resolve.StudyLabel(st), st.StudyUID))
	}
	return opts
}

// Browse lets the user pick a patient and a study, prints the resolved tree
// of the study to out and repeats until the user stops.
func Browse(c *record.Collection, out io.Writer) error {
	if len(c.Patients()) == 0 {
		return ErrEmptyCollection
	}

	for {
		var patientID, studyUID string
		again := true

		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Key("patient").
					Title("Patient").
					Options(PatientOptions(c)...).
					Value(&patientID),
			),
			huh.NewGroup(
				huh.NewSelect[string]().
					Key("study").
					Title("Study").
					OptionsFunc(func() []huh.Option[string] {
						if p := query.LookupPatient(c, patientID); p != nil {
							return StudyOptions(p)
						}
						return nil
					}, &patientID).
					Value(&studyUID),
			),
		).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("browse: %w", err)
		}

		if st := query.LookupStudy(c, patientID, studyUID); st != nil {
			fmt.Fprintln(out, StudyTree(st, resolve.Resolve(st)))
			fmt.Fprintf(out, "%s\n\n", SubtitleStyle.Render(fmt.Sprintf("%d files", len(query.FilesOfStudy(st)))))
		}

		err = huh.NewConfirm().
			Title("Browse another study?").
			Value(&again).
			Run()
		if errors.Is(err, huh.ErrUserAborted) || !again {
			return nil
		}
		if err != nil {
			return fmt.Errorf("browse: %w", err)
		}
	}
}
