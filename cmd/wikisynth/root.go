package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	"github.com/lueurxax/wikisynth/internal/synth"
)

const outputFilePerm = 0o644

func newRootCommand(c *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wikisynth",
		Short:         "Synthesize Wikipedia articles from several language editions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newSynthesizeCommand(c))
	rootCmd.AddCommand(newResolveCommand(c))
	rootCmd.AddCommand(newProvidersCommand(c))
	rootCmd.AddCommand(newServeCommand(c))

	return rootCmd
}

func newSynthesizeCommand(c *commandContext) *cobra.Command {
	var (
		maxTranslations int
		output          string
		noCache         bool
	)

	cmd := &cobra.Command{
		Use:   "synthesize <title> <language>",
		Short: "Produce an article, reusing the cache when possible",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			req := synth.Request{
				Title:           args[0],
				Language:        args[1],
				MaxTranslations: maxTranslations,
				NoCache:         noCache,
			}

			out := cmd.OutOrStdout()
			if output == "" {
				req.OnDelta = func(delta string) { _, _ = io.WriteString(out, delta) }
			}

			result, err := application.Synthesize(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output != "" {
				if err := afero.WriteFile(c.fs, output, []byte(result.Body+"\n"), outputFilePerm); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
			} else if result.Source == domain.SourceSynthesized {
				_, _ = fmt.Fprintln(out)
			} else {
				_, _ = fmt.Fprintln(out, result.Body)
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), summarize(result))

			return nil
		},
	}

	cmd.Flags().IntVar(&maxTranslations, "max-translations", 0, "Number of other editions to translate (default from MAX_TRANSLATIONS)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the article to a file instead of stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Regenerate even when a cached article exists")

	return cmd
}

func newResolveCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query> <language>",
		Short: "Check whether a query is already covered by a cached article",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			decision := application.Resolve(cmd.Context(), domain.Query{Text: args[0], Language: args[1]})
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderDecision(decision))

			return nil
		},
	}
}

func newProvidersCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the configured LLM providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			statuses := application.ProviderStatuses()
			rows := make([][]string, 0, len(statuses))

			for _, s := range statuses {
				rows = append(rows, []string{
					string(s.Name),
					strconv.Itoa(s.Priority),
					strconv.FormatBool(s.Available),
					s.CircuitState,
				})
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Provider", "Priority", "Available", "Circuit"}, rows, 1))

			return nil
		},
	}
}

func newServeCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes, metrics and cached articles over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			if err := application.Serve(cmd.Context()); err != nil {
				return err
			}

			logger.Info().Msg("server stopped")

			return nil
		},
	}
}

func renderDecision(d domain.Decision) string {
	target := "-"
	if d.Target != nil {
		target = d.Target.Identifier
	}

	rows := [][]string{
		{"Redirect", strconv.FormatBool(d.ShouldRedirect)},
		{"Target", target},
		{"Confidence", strconv.FormatFloat(d.Confidence, 'f', 2, 64)},
		{"Outcome", string(d.Outcome)},
		{"Rationale", d.Rationale},
	}

	return renderTable([]string{"Field", "Value"}, rows)
}

func summarize(r synth.Result) string {
	parts := []string{"source=" + string(r.Source), "run_id=" + r.RunID}

	if r.Entry.Location != "" {
		parts = append(parts, "location="+r.Entry.Location)
	}

	if len(r.Languages) > 0 {
		parts = append(parts, "languages="+strings.Join(r.Languages, ","))
	}

	return strings.Join(parts, " ")
}
