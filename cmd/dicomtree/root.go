package main

import (
	"github.com/mrsinham/dicomtree/internal/config"
	"github.com/mrsinham/dicomtree/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "dicomtree",
		Short:         "Browse DICOM RT studies as a reference tree",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Load configuration from YAML file")
	pf.String("log-level", "", "Log level: debug, info, warn, error, off")
	pf.Int("workers", 0, "Number of parallel decode workers (default: CPU cores)")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("scan.workers", pf.Lookup("workers"))

	root.AddCommand(
		newScanCmd(a),
		newTreeCmd(a),
		newFilesCmd(a),
		newServeCmd(a),
		newGenerateCmd(a),
		newBrowseCmd(a),
	)
	return root
}
