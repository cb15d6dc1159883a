package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/services"
)

func (a *App) newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a web search without summarization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := domain.NewQuery(args[0], a.maxResults, "")
			if err != nil {
				return err
			}

			stop := startSpinner("Searching...")
			results, err := a.service.SearchOnly(cmd.Context(), query, domain.Strategy(a.strategy))
			stop()
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return printJSON(results)
			}
			printSearchResults(results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&a.maxResults, "max-results", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&a.strategy, "strategy", "s", "", "Search strategy: intelligent, tavily_only or serp_only")
	cmd.Flags().BoolVar(&a.jsonOutput, "json", false, "Print the raw result envelope as JSON")
	return cmd
}

func (a *App) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Run full research: search plus LLM summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := domain.NewQuery(args[0], a.maxResults, "")
			if err != nil {
				return err
			}
			query.IncludeSummary = !a.noSummary

			stop := startSpinner("Researching...")
			response := a.service.Research(cmd.Context(), query, domain.Strategy(a.strategy))
			stop()

			return a.printResearchResponse(response)
		},
	}
	cmd.Flags().IntVarP(&a.maxResults, "max-results", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&a.strategy, "strategy", "s", "", "Search strategy: intelligent, tavily_only or serp_only")
	cmd.Flags().BoolVar(&a.noSummary, "no-summary", false, "Skip the LLM summary and print the raw findings")
	cmd.Flags().BoolVarP(&a.render, "render", "r", false, "Render the summary as formatted markdown")
	cmd.Flags().BoolVar(&a.jsonOutput, "json", false, "Print the full response envelope as JSON")
	return cmd
}

func (a *App) newEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email [query]",
		Short: "Run research and draft an email with the findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := domain.NewQuery(args[0], a.maxResults, "")
			if err != nil {
				return err
			}

			emailReq := domain.EmailRequest{
				ResearchQuery:  query.Text,
				Context:        a.context,
				Recipient:      a.recipient,
				SubjectHint:    a.subjectHint,
				Tone:           a.tone,
				IncludeSources: true,
			}
			if err := emailReq.Normalize(); err != nil {
				return err
			}

			stop := startSpinner("Researching and drafting...")
			response := a.service.ResearchWithEmail(cmd.Context(), query, domain.Strategy(a.strategy), emailReq)
			stop()

			return a.printResearchResponse(response)
		},
	}
	cmd.Flags().IntVarP(&a.maxResults, "max-results", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&a.strategy, "strategy", "s", "", "Search strategy: intelligent, tavily_only or serp_only")
	cmd.Flags().StringVar(&a.recipient, "to", "", "Recipient email address (required)")
	cmd.Flags().StringVar(&a.context, "context", "Based on recent research", "Context for the email")
	cmd.Flags().StringVar(&a.subjectHint, "subject", "", "Suggested email subject")
	cmd.Flags().StringVar(&a.tone, "tone", domain.ToneProfessional, "Email tone: professional, casual, formal or friendly")
	cmd.MarkFlagRequired("to")
	return cmd
}

func (a *App) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent research runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.service.History(cmd.Context(), a.historyLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No research runs recorded yet.")
				return nil
			}
			for _, record := range records {
				status := "ok"
				if !record.Success {
					status = "failed"
				}
				providers := make([]string, 0, len(record.Providers))
				for _, p := range record.Providers {
					providers = append(providers, string(p))
				}
				fmt.Printf("%s  [%s]  %q  results=%d  providers=%s  %.2fs\n",
					record.CreatedAt.Format(time.RFC3339),
					status,
					record.Query,
					record.ResultCount,
					strings.Join(providers, ","),
					record.Elapsed,
				)
				if record.Error != "" {
					fmt.Printf("    error: %s\n", record.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&a.historyLimit, "limit", "l", 20, "Maximum number of runs to show")
	return cmd
}

// printResearchResponse renders an AgentResponse for the terminal
func (a *App) printResearchResponse(response domain.AgentResponse) error {
	if a.jsonOutput {
		return printJSON(response)
	}

	if !response.Success {
		fmt.Fprintf(os.Stderr, "Research failed: %s\n", response.Error)
		return fmt.Errorf("%s", response.Message)
	}

	data, ok := response.Data.(*services.ResearchData)
	if !ok {
		return printJSON(response)
	}

	fmt.Printf("Query: %s\n", data.Query)
	fmt.Printf("Sources: %d  Time: %.2fs", len(data.Sources), response.ExecutionTime)
	if response.TokensUsed > 0 {
		fmt.Printf("  Tokens: %d", response.TokensUsed)
	}
	fmt.Print("\n\n")

	if a.render {
		rendered, err := renderMarkdown(data.Summary)
		if err == nil {
			fmt.Print(rendered)
		} else {
			fmt.Println(data.Summary)
		}
	} else {
		fmt.Println(data.Summary)
	}

	if len(data.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range data.Sources {
			fmt.Printf("%d. %s\n", i+1, source)
		}
	}

	if data.EmailDraft != nil {
		fmt.Printf("\nEmail draft: %q to %s", data.EmailDraft.Subject, strings.Join(data.EmailDraft.To, ", "))
		if data.EmailDraft.DraftID != "" {
			fmt.Printf(" (draft id %s)", data.EmailDraft.DraftID)
		} else {
			fmt.Print(" (not saved to the mail service)")
		}
		fmt.Println()
	}

	fmt.Printf("\n%s\n", response.Message)
	return nil
}

// printSearchResults renders a search envelope without a summary
func printSearchResults(results *domain.SearchResults) {
	fmt.Printf("Search results for %q\n", results.Query)
	fmt.Printf("Total: %d results in %.2fs\n", results.TotalResults, results.SearchTime)

	if results.AISummary != "" {
		fmt.Printf("\nAI Summary:\n%s\n", results.AISummary)
	}

	fmt.Println()
	for i, result := range results.Results {
		fmt.Printf("%d. %s\n", i+1, result.ResultTitle())
		fmt.Printf("   URL: %s\n", result.ResultURL())
		text := result.DisplayText()
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("   %s\n\n", text)
	}
}

func startSpinner(message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

func renderMarkdown(text string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}

func printJSON(payload any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
