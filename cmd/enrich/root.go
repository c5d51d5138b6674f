package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"validation-enricher/internal/enrich"
	"validation-enricher/internal/schemas"
)

type options struct {
	input   string
	output  string
	summary bool
}

func rootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "enrich [request-file]",
		Short: "Annotate generated questions with validation metadata",
		Long: `Reads an enrichment request ({"params": {"questions", "validation_results", "original_scores"}})
from a JSON or YAML file, or stdin when no file is given, and prints the response envelope.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			path := ""
			if len(args) == 1 && args[0] != "-" {
				path = args[0]
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return run(in, cmd.OutOrStdout(), cmd.ErrOrStderr(), inputFormat(opts.input, path), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input format: json or yaml (default: from file extension, else json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print per-status counts to stderr")
	return cmd
}

func inputFormat(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func run(in io.Reader, out, errOut io.Writer, format string, opts options) error {
	var (
		req schemas.EnrichRequest
		err error
	)
	switch format {
	case "json":
		req, err = schemas.DecodeJSON(in)
	case "yaml":
		req, err = schemas.DecodeYAML(in)
	default:
		return fmt.Errorf("unknown input format %q", format)
	}
	if err != nil {
		return err
	}

	env, err := schemas.Run(req)
	if err != nil {
		return err
	}

	switch strings.ToLower(opts.output) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(env)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(env)
		if err == nil {
			err = enc.Close()
		}
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	if err != nil {
		return err
	}

	if opts.summary {
		s := enrich.Summarize(env.Data.EnrichedQuestions)
		fmt.Fprintf(errOut, "total=%d approved=%d needs_review=%d discarded=%d\n",
			s.Total, s.Approved, s.NeedsReview, s.Discarded)
	}
	return nil
}
