// matchctl ranks an offline JSON bundle without a database.
//
//	matchctl candidates -i bundle.json --min-score 0.5
//	matchctl projects -i bundle.json --limit 5
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

type flags struct {
	input    string
	minScore float64
	limit    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Rank candidates or projects from a JSON bundle",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&f.input, "input", "i", "-", "bundle file, - for stdin")
	root.PersistentFlags().Float64Var(&f.minScore, "min-score", 0, "lowest score to keep, overrides the bundle")
	root.PersistentFlags().IntVar(&f.limit, "limit", 0, "maximum results, overrides the bundle; 0 keeps all")

	root.AddCommand(&cobra.Command{
		Use:   "candidates",
		Short: "Rank the bundle's candidates against its project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, opts, err := load(cmd, f)
			if err != nil {
				return err
			}
			if in.Project == nil {
				return errors.New("bundle has no project")
			}
			if err := matching.ValidateProject(*in.Project); err != nil {
				return err
			}
			for _, c := range in.Candidates {
				if err := matching.ValidateCandidate(c); err != nil {
					return fmt.Errorf("candidate %s: %w", c.UserID, err)
				}
			}
			out, err := matching.FindCandidates(cmd.Context(), *in.Project, in.Candidates, opts)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), out)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "projects",
		Short: "Rank the bundle's projects against its candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, opts, err := load(cmd, f)
			if err != nil {
				return err
			}
			if in.Candidate == nil {
				return errors.New("bundle has no candidate")
			}
			if err := matching.ValidateCandidate(*in.Candidate); err != nil {
				return err
			}
			for _, p := range in.Projects {
				if err := matching.ValidateProject(p); err != nil {
					return fmt.Errorf("project %s: %w", p.ProjectID, err)
				}
			}
			out, err := matching.FindProjects(cmd.Context(), *in.Candidate, in.Projects, opts)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), out)
		},
	})

	return root
}

func load(cmd *cobra.Command, f *flags) (models.FindInput, matching.Options, error) {
	var in models.FindInput

	var r io.Reader = cmd.InOrStdin()
	if f.input != "-" {
		file, err := os.Open(f.input)
		if err != nil {
			return in, matching.Options{}, err
		}
		defer file.Close()
		r = file
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, matching.Options{}, fmt.Errorf("decode bundle: %w", err)
	}

	opts := matching.Options{MinScore: in.MinScore, Limit: in.Limit}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = f.minScore
	}
	if cmd.Flags().Changed("limit") {
		opts.Limit = f.limit
	}
	if opts.MinScore < 0 || opts.MinScore > 1 {
		return in, opts, fmt.Errorf("min score %v not in [0, 1]", opts.MinScore)
	}
	return in, opts, nil
}

func write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
