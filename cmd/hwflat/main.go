package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hwflat/internal/config"
	"hwflat/internal/diag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// session carries the settings shared by every command of one invocation.
type session struct {
	stdout   io.Writer
	stderr   io.Writer
	cfg      config.Config
	log      *log.Logger
	reporter *diag.Reporter
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	s := &session{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "hwflat",
		Short:         "Flatten hierarchical hardware designs into event programs.",
		Long:          "hwflat inlines every instance of a hierarchical design into one flat program of values and readiness-tracked events.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	root.PersistentFlags().String("config", "", "path to "+config.FileName+" (searched upwards from the working directory when omitted)")
	root.PersistentFlags().String("diag-format", "", "diagnostic output format (text|json)")
	root.PersistentFlags().String("top", "", "module to flatten (defaults to the module marked top)")
	root.AddCommand(newFlattenCmd(s), newOrderCmd(s), newDumpCmd(s))
	return root
}

// setup loads the project file and applies command-line overrides.
func (s *session) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var err error
	if path, _ := flags.GetString("config"); path != "" {
		s.cfg, err = config.Load(path)
	} else {
		s.cfg, _, err = config.Discover(".")
	}
	if err != nil {
		return err
	}
	if flags.Changed("top") {
		s.cfg.Top, _ = flags.GetString("top")
	}
	if flags.Changed("diag-format") {
		s.cfg.DiagFormat, _ = flags.GetString("diag-format")
	}
	if flags.Changed("jobs") {
		s.cfg.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("format") {
		s.cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("out-dir") {
		s.cfg.Output.Dir, _ = flags.GetString("out-dir")
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.log = log.New()
	s.log.SetOutput(s.stderr)
	if verbose, _ := flags.GetBool("verbose"); verbose {
		s.log.SetLevel(log.DebugLevel)
	}
	s.reporter = diag.NewReporter(s.stderr, s.cfg.DiagFormat)
	s.log.WithFields(log.Fields{
		"top":    s.cfg.Top,
		"jobs":   s.cfg.Jobs,
		"format": s.cfg.Output.Format,
	}).Debug("configured")
	return nil
}
