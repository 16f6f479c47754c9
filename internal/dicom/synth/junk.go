package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
)

// writeJunk drops files next to the study that a scan must leave out:
// valid objects hidden behind a leading dot, a text file, and a file that
// stops right after the DICM magic.
func writeJunk(dir string, st *Study) ([]string, error) {
	var paths []string

	hidden := func(path string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		obj := Object{
			PatientID:         "HIDDEN",
			PatientName:       "HIDDEN^Object",
			StudyUID:          st.StudyUID,
			SeriesUID:         NewUID(),
			SeriesDescription: "Hidden",
			InstanceUID:       NewUID(),
			Modality:          modalities.CT,
		}
		if err := WriteObject(path, obj); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}
	if err := hidden(filepath.Join(dir, ".trash", "IM000001")); err != nil {
		return nil, fmt.Errorf("write hidden directory object: %w", err)
	}
	if err := hidden(filepath.Join(dir, ".IM000001")); err != nil {
		return nil, fmt.Errorf("write hidden object: %w", err)
	}

	readme := filepath.Join(dir, "README.txt")
	if err := os.WriteFile(readme, []byte("Synthetic RT study. Not for clinical use.\n"), 0644); err != nil {
		return nil, fmt.Errorf("write readme: %w", err)
	}
	paths = append(paths, readme)

	truncated := filepath.Join(dir, "truncated.dcm")
	if err := os.WriteFile(truncated, truncatedDICOM(), 0644); err != nil {
		return nil, fmt.Errorf("write truncated file: %w", err)
	}
	paths = append(paths, truncated)

	return paths, nil
}

// truncatedDICOM returns a 128-byte preamble and the DICM magic followed by
// half of a group length element.
func truncatedDICOM() []byte {
	data := make([]byte, 128, 140)
	data = append(data, 'D', 'I', 'C', 'M')
	return append(data, 0x02, 0x00, 0x00, 0x00, 'U', 'L')
}
