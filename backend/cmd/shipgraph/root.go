package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/services"
	"shipgraph/backend/pkg/config"
	"shipgraph/backend/pkg/logger"
)

// cli carries the services shared by every subcommand of one invocation
type cli struct {
	root  *cobra.Command
	store string
	sm    *services.ServiceManager
}

// newCLI builds the command tree. Execute must be used to run it so the
// services opened by setup are released whatever the command returns.
func newCLI() *cli {
	c := &cli{}

	root := &cobra.Command{
		Use:   "shipgraph",
		Short: "Build and query a ship survey knowledge graph",
		Long: `shipgraph extracts question tables from ship survey PDFs, structures
them with a language model and stores them as a Neo4j graph of
Documents, Categories, Questions and Ships.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.PersistentFlags().StringVar(&c.store, "store", "", "Graph store backend (neo4j or memory), overrides STORE_BACKEND")

	root.AddCommand(
		c.ingestCmd(),
		c.shipsCmd(),
		c.askCmd(),
		c.embedCmd(),
		c.schemaCmd(),
	)
	c.root = root
	return c
}

// Execute runs the command selected by the arguments and then closes the
// services, on error paths included
func (c *cli) Execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if closeErr := c.teardown(); err == nil {
		err = closeErr
	}
	return err
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.store != "" {
		cfg.StoreBackend = strings.ToLower(c.store)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if err := logger.Init(cfg.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	sm, err := services.NewServiceManager(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.sm = sm
	return nil
}

func (c *cli) teardown() error {
	defer logger.Sync()
	if c.sm == nil {
		return nil
	}
	return c.sm.Close(context.Background())
}

func (c *cli) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <pdf>...",
		Short: "Extract, structure and store survey PDFs",
		Long: `Run each PDF through table extraction, language model structuring and
graph population, in the order given. A PDF that cannot be read is
reported and skipped; any other failure stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.sm.Orchestrator.Run(cmd.Context(), args)
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s\n", report.RunID)
				for _, doc := range report.Documents {
					fmt.Fprintf(out, "  %s: %d tables, %d fragments, %d populated\n",
						filepath.Base(doc.Path), doc.Tables, doc.Fragments, len(doc.Populated))
					if doc.Error != "" {
						fmt.Fprintf(out, "    error: %s\n", doc.Error)
					}
				}
				if ships := report.Ships(); len(ships) > 0 {
					fmt.Fprintf(out, "Ships: %s\n", strings.Join(ships, ", "))
				}
				if report.StructuredPath != "" {
					fmt.Fprintf(out, "Structured output: %s\n", report.StructuredPath)
				}
				if report.WorkbookPath != "" {
					fmt.Fprintf(out, "Workbook: %s\n", report.WorkbookPath)
				}
			}
			return err
		},
	}
}

func (c *cli) shipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ships",
		Short: "List the ships recorded in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ships, err := c.sm.Resolver.Ships(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ships) == 0 {
				fmt.Fprintln(out, "No ships recorded")
				return nil
			}
			for _, ship := range ships {
				fmt.Fprintln(out, ship)
			}
			return nil
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	var (
		strategy string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural language question from the graph",
		Long: `Answer a question with one of the query strategies:

  heuristic  "how many" or "find"/"show" questions about a node label
  embedding  Questions whose stored embedding is similar to the text`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			answer, err := c.sm.Resolver.Ask(cmd.Context(), strategy, text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(answer)
			}
			for _, m := range answer.Matches {
				if m.Matched != "" {
					fmt.Fprintf(out, "%s (similarity %.3f)\n", m.Matched, m.Similarity)
				} else {
					fmt.Fprintln(out, m.Query)
				}
				for _, row := range m.Rows {
					data, err := json.Marshal(row)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %s\n", data)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", constants.StrategyHeuristic, "Query strategy (heuristic or embedding)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the answer as JSON")
	return cmd
}

func (c *cli) embedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed",
		Short: "Store embeddings for Questions that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := c.sm.Indexer.Backfill(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d questions\n", written)
			if err != nil {
				logger.Get().Error("Embedding backfill stopped", zap.Error(err))
			}
			return err
		},
	}
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create graph constraints and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.sm.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema ready")
			return nil
		},
	}
}
