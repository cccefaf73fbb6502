// Package main provides the triage CLI: an HTTP classification server, a
// dataset loader, and one-off classification from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/supportstack/triage"
	"github.com/supportstack/triage/adapters"
	"github.com/supportstack/triage/clients/endee"
	"github.com/supportstack/triage/metadata"
	"github.com/supportstack/triage/server"
	"github.com/supportstack/triage/store"
)

var version = "dev"

// sampleTickets exercises each routing department when `classify` is run
// without arguments.
var sampleTickets = []string{
	"I can't log into my account, the password reset email never arrives",
	"I was charged twice for my subscription this month",
	"The app crashes every time I try to open a PDF attachment",
	"It would be great if you added a dark mode to the dashboard",
	"How do I export my data before canceling?",
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var cfgPath string
	var cfg *appConfig

	rootCmd := &cobra.Command{
		Use:     "triage",
		Short:   "Classify and route support tickets by vector similarity",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env file is optional; environment wins either way.
			_ = godotenv.Load()

			var err error
			cfg, err = loadConfig(cfgPath)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "triage.yaml", "path to YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ticket classification HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}

			tickets, err := store.NewTicketStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer tickets.Close()

			srv := server.NewServer(engine, tickets, logger)
			logger.Info().
				Str("addr", cfg.ListenAddr).
				Str("index", cfg.IndexName).
				Str("embedding", cfg.Embedding.Provider).
				Str("search", cfg.Search.Provider).
				Msg("starting server")
			return newHTTPServer(cfg.ListenAddr, srv.Handler()).ListenAndServe()
		},
	}

	classifyCmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify and route one or more ticket texts",
		Long:  "Classify the given ticket texts. With no arguments, a built-in set of sample tickets is classified instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}

			texts := args
			if len(texts) == 0 {
				texts = sampleTickets
			}

			for _, text := range texts {
				decision, err := engine.ClassifyAndRoute(cmd.Context(), text)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(decision, "", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("%s\n%s\n\n", text, out)
			}
			return nil
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Embed the labeled ticket dataset and load it into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), cfg, logger)
		},
	}

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active routing rule table",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := cfg.RoutingRules
			if len(rules) == 0 {
				rules = triage.DefaultRoutingRules()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MATCH\tDEPARTMENT\tPRIORITY\tSLA (HOURS)")
			for _, r := range rules {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.MatchKey, r.Department, r.Priority, r.SLAHours)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(serveCmd, classifyCmd, loadCmd, rulesCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

// buildEmbedding constructs the configured embedding client.
func buildEmbedding(cfg *appConfig) (triage.EmbeddingClient, error) {
	switch cfg.Embedding.Provider {
	case "voyage":
		return adapters.NewVoyageEmbeddingAdapter(nil)
	case "openai":
		return adapters.NewOpenAIEmbeddingAdapter(nil, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want voyage or openai)", cfg.Embedding.Provider)
	}
}

// buildSearch constructs the configured vector search client.
func buildSearch(cfg *appConfig, logger zerolog.Logger) (triage.VectorSearchClient, error) {
	switch cfg.Search.Provider {
	case "endee":
		var baseURL *string
		if cfg.Search.BaseURL != "" {
			baseURL = &cfg.Search.BaseURL
		}
		return adapters.NewEndeeSearchAdapter(baseURL, logger)
	case "pinecone":
		var host *string
		if cfg.Search.Host != "" {
			host = &cfg.Search.Host
		}
		return adapters.NewPineconeSearchAdapter(nil, host, cfg.Search.Namespace)
	default:
		return nil, fmt.Errorf("unknown search provider %q (want endee or pinecone)", cfg.Search.Provider)
	}
}

// loadMetadata reads the labeled-ticket CSV configured for the dataset.
func loadMetadata(cfg *appConfig) (*metadata.Store, error) {
	return metadata.LoadCSV(cfg.Dataset.Path, metadata.Config{
		CategoryAliases: cfg.Dataset.CategoryAliases,
		TextColumns:     cfg.Dataset.TextColumns,
		IDPrefix:        cfg.Dataset.IDPrefix,
	})
}

// buildEngine wires the configured collaborators into a triage engine.
func buildEngine(cfg *appConfig, logger zerolog.Logger) (*triage.Engine, error) {
	embedding, err := buildEmbedding(cfg)
	if err != nil {
		return nil, err
	}

	search, err := buildSearch(cfg, logger)
	if err != nil {
		return nil, err
	}

	meta, err := loadMetadata(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("records", meta.Len()).Str("path", cfg.Dataset.Path).Msg("metadata loaded")

	return triage.NewEngine(triage.Config{
		EmbeddingClient:     embedding,
		SearchClient:        search,
		MetadataStore:       meta,
		RoutingRules:        cfg.RoutingRules,
		IndexName:           cfg.IndexName,
		TopK:                cfg.TopK,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Logger:              &logger,
	})
}

// newHTTPServer builds the server for the serve command. The handler sets no
// deadlines of its own, so slow-header connections are bounded here.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// documentEmbedder is implemented by embedding clients that distinguish
// document embeddings from query embeddings.
type documentEmbedder interface {
	GenerateDocumentEmbedding(ctx context.Context, text string) ([]float32, error)
}

// embedFunc embeds one document for indexing.
type embedFunc func(ctx context.Context, text string) ([]float32, error)

const insertBatchSize = 100

// runLoad embeds every dataset record and inserts it into the Endee index
// under the same ticket_{row} IDs the metadata store resolves at query time.
func runLoad(ctx context.Context, cfg *appConfig, logger zerolog.Logger) error {
	if cfg.Search.Provider != "endee" {
		return fmt.Errorf("load requires the endee search provider, got %q", cfg.Search.Provider)
	}

	baseURL := cfg.Search.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("ENDEE_BASE_URL")
	}
	if baseURL == "" {
		return fmt.Errorf("no Endee base URL configured (set search.base_url or ENDEE_BASE_URL)")
	}
	client := endee.NewClient(baseURL, os.Getenv("ENDEE_AUTH_TOKEN"), logger)

	embedding, err := buildEmbedding(cfg)
	if err != nil {
		return err
	}

	meta, err := loadMetadata(cfg)
	if err != nil {
		return err
	}
	if meta.Len() == 0 {
		return fmt.Errorf("dataset %s has no records", cfg.Dataset.Path)
	}

	embed := embedFunc(embedding.GenerateEmbedding)
	if de, ok := embedding.(documentEmbedder); ok {
		embed = de.GenerateDocumentEmbedding
	}

	idPrefix := cfg.Dataset.IDPrefix
	if idPrefix == "" {
		idPrefix = metadata.DefaultIDPrefix
	}

	return loadDataset(ctx, client, embed, meta, idPrefix, cfg.IndexName, logger)
}

// loadDataset embeds the metadata records and inserts them in batches. An
// existing index is dropped and rebuilt so repeated loads stay idempotent.
func loadDataset(ctx context.Context, client *endee.Client, embed embedFunc, meta *metadata.Store, idPrefix, indexName string, logger zerolog.Logger) error {
	existing, err := client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	if slices.Contains(existing, indexName) {
		logger.Info().Str("index", indexName).Msg("index already exists, deleting")
		if err := client.DeleteIndex(ctx, indexName); err != nil {
			return fmt.Errorf("delete existing index %s: %w", indexName, err)
		}
	}

	var batch []endee.Vector
	created := false
	for row := 0; row < meta.Len(); row++ {
		id := fmt.Sprintf("%s%d", idPrefix, row)
		record, ok := meta.Lookup(id)
		if !ok || record.Text == "" {
			continue
		}

		vector, err := embed(ctx, record.Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", id, err)
		}

		// Index dimension comes from the first embedded record.
		if !created {
			if err := client.CreateIndex(ctx, indexName, len(vector), "cosine"); err != nil {
				return fmt.Errorf("create index %s: %w", indexName, err)
			}
			created = true
		}

		batch = append(batch, endee.Vector{
			ID:     id,
			Values: vector,
			Metadata: map[string]any{
				"category": record.Category,
			},
		})

		if len(batch) >= insertBatchSize {
			if err := client.InsertVectors(ctx, indexName, batch); err != nil {
				return fmt.Errorf("insert batch ending at %s: %w", id, err)
			}
			logger.Info().Int("loaded", row+1).Msg("batch inserted")
			batch = batch[:0]
		}
	}

	if err := client.InsertVectors(ctx, indexName, batch); err != nil {
		return fmt.Errorf("insert final batch: %w", err)
	}

	logger.Info().Int("records", meta.Len()).Str("index", indexName).Msg("dataset loaded")
	return nil
}
