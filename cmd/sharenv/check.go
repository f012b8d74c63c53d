package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/sharenv"
)

// report is the YAML document printed by `sharenv check`.
// Values are never printed, only their count.
type report struct {
	VarsDir   string           `yaml:"vars_dir"`
	Variables []variableReport `yaml:"variables"`
	Aliases   []string         `yaml:"aliases,omitempty"`
	Skipped   []skippedReport  `yaml:"skipped,omitempty"`
}

type variableReport struct {
	Name   string `yaml:"name"`
	Values int    `yaml:"values"`
}

type skippedReport struct {
	Entry  string `yaml:"entry"`
	Reason string `yaml:"reason"`
	Error  string `yaml:"error,omitempty"`
}

func newCheckCmd(opts *options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the variables once and print what would be served",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			result, err := sharenv.NewDirLoader(cfg.VarsDir).Aliases(cfg.AliasesFile).Load(cmd.Context())
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(buildReport(cfg.VarsDir, result)); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if err := enc.Close(); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			if strict && len(result.Skipped) > 0 {
				return fmt.Errorf("%d entries skipped", len(result.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any entry is skipped")
	return cmd
}

func buildReport(dir string, result sharenv.LoadResult) report {
	r := report{VarsDir: dir, Variables: []variableReport{}}
	for _, v := range result.Variables {
		r.Variables = append(r.Variables, variableReport{Name: v.Name(), Values: v.Len()})
	}
	for _, a := range result.Aliases {
		r.Aliases = append(r.Aliases, a.Name)
	}
	for _, s := range result.Skipped {
		sr := skippedReport{Entry: s.Name, Reason: string(s.Reason)}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		r.Skipped = append(r.Skipped, sr)
	}
	return r
}
