package main

import (
	"fmt"
	"io"

	"github.com/mrsinham/dicomtree/cmd/dicomtree/tui"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/query"
	"github.com/mrsinham/dicomtree/internal/resolve"
	"github.com/spf13/cobra"
)

func newTreeCmd(a *app) *cobra.Command {
	var (
		flags    scanFlags
		format   string
		studyUID string
	)
	cmd := &cobra.Command{
		Use:   "tree [root]",
		Short: "Print the RT hierarchy of every study",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.ParseFormat(format)
			if err != nil {
				return err
			}
			out, err := a.scan(cmd, args, flags, nil)
			if err != nil {
				return err
			}
			return writeTree(cmd.OutOrStdout(), out.Collection, f, studyUID)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(query.FormatText), "Output format: text, json, yaml")
	cmd.Flags().StringVar(&studyUID, "study", "", "Only show the study with this Study Instance UID")
	return cmd
}

func writeTree(w io.Writer, c *record.Collection, f query.Format, studyUID string) error {
	if studyUID != "" {
		p, st, ok := query.FindStudy(c, studyUID)
		if !ok {
			return fmt.Errorf("study %s not found", studyUID)
		}
		nodes := resolve.Resolve(st)
		if f == query.FormatText {
			_, err := fmt.Fprintln(w, tui.StudyTree(st, nodes))
			return err
		}
		doc := query.ExportTree(st, nodes)
		doc.PatientID = p.PatientID
		return query.Encode(w, f, doc)
	}

	if f == query.FormatText {
		_, err := io.WriteString(w, tui.RenderCollection(c))
		return err
	}
	docs := []query.TreeDoc{}
	for _, p := range c.Patients() {
		for _, st := range p.Studies() {
			doc := query.ExportTree(st, resolve.Resolve(st))
			doc.PatientID = p.PatientID
			docs = append(docs, doc)
		}
	}
	return query.Encode(w, f, docs)
}
