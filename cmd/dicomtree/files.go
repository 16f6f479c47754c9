package main

import (
	"fmt"
	"io"

	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/query"
	"github.com/spf13/cobra"
)

func newFilesCmd(a *app) *cobra.Command {
	var (
		flags     scanFlags
		patientID string
		studyUID  string
	)
	cmd := &cobra.Command{
		Use:   "files [root]",
		Short: "List the files of the collection, a patient or a study, one per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the file list
			flags.quiet = true
			out, err := a.scan(cmd, args, flags, nil)
			if err != nil {
				return err
			}
			files, err := selectFiles(out.Collection, patientID, studyUID)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), files)
		},
	}
	flags.registerInteractive(cmd)
	cmd.Flags().StringVar(&patientID, "patient", "", "Only list files of this Patient ID")
	cmd.Flags().StringVar(&studyUID, "study", "", "Only list files of this Study Instance UID")
	return cmd
}

func selectFiles(c *record.Collection, patientID, studyUID string) ([]string, error) {
	switch {
	case studyUID != "" && patientID != "":
		st := query.LookupStudy(c, patientID, studyUID)
		if st == nil {
			return nil, fmt.Errorf("study %s of patient %s not found", studyUID, patientID)
		}
		return query.FilesOfStudy(st), nil
	case studyUID != "":
		_, st, ok := query.FindStudy(c, studyUID)
		if !ok {
			return nil, fmt.Errorf("study %s not found", studyUID)
		}
		return query.FilesOfStudy(st), nil
	case patientID != "":
		p := query.LookupPatient(c, patientID)
		if p == nil {
			return nil, fmt.Errorf("patient %s not found", patientID)
		}
		return query.FilesOfPatient(p), nil
	default:
		return query.FilesOfCollection(c), nil
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
