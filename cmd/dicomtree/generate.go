package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mrsinham/dicomtree/internal/dicom/synth"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		opts    synth.Options
		orphans bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic RT study (CT, RTSTRUCT, RTPLAN, RTDOSE) to a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orphans {
				opts.OrphanPlan, opts.OrphanDose = true, true
			}
			opts.Workers = a.cfg.Scan.Workers

			quiet := opts.Quiet
			opts.Quiet = true
			if !quiet {
				w := cmd.ErrOrStderr()
				opts.ProgressCallback = func(current, total int) {
					fmt.Fprintf(w, "\r  Progress: %d/%d (%.0f%%)", current, total, float64(current)/float64(total)*100)
					if current == total {
						fmt.Fprintln(w)
					}
				}
			}

			st, err := synth.GenerateRTStudy(opts)
			if err != nil {
				return fmt.Errorf("generate study: %w", err)
			}
			a.log.Debug().Str("study_uid", st.StudyUID).Int("files", len(st.Files)).Msg("study generated")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %s DICOM objects written to %s/\n", humanize.Comma(int64(len(st.Files))), opts.OutputDir)
			fmt.Fprintf(out, "  Patient: %s (%s)\n", st.PatientName, st.PatientID)
			fmt.Fprintf(out, "  Study: %s\n", st.StudyUID)
			if len(st.Ignored) > 0 {
				fmt.Fprintf(out, "  Non-image files: %d\n", len(st.Ignored))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.OutputDir, "output", "o", "rt_study", "Output directory")
	f.Int64Var(&opts.Seed, "seed", 0, "Seed for reproducibility (derived from --output if 0)")
	f.IntVar(&opts.Slices, "slices", 8, "Number of CT slices")
	f.IntVar(&opts.Width, "width", 64, "Image width in pixels")
	f.IntVar(&opts.Height, "height", 64, "Image height in pixels")
	f.StringVar(&opts.PatientID, "patient-id", "", "Patient ID (random if not specified)")
	f.StringVar(&opts.PatientName, "patient-name", "", "Patient name, FAMILY^Given (random if not specified)")
	f.StringVar(&opts.StudyDescription, "description", "RT Planning", "Study description")
	f.BoolVar(&opts.WithPET, "pet", false, "Add a PET series sharing the CT frame of reference")
	f.BoolVar(&orphans, "orphans", false, "Add an RTPLAN and an RTDOSE whose references cannot be followed")
	f.IntVar(&opts.Anonymous, "anonymous", 0, "Number of objects written without a Patient ID")
	f.BoolVar(&opts.Junk, "junk", false, "Add hidden files, a text file and a truncated DICOM file")
	f.BoolVar(&opts.DICOMDIR, "dicomdir", false, "Write a DICOMDIR index")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}
