// Package querycmder provides the query command for semantic search over the store.
package querycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semstore/semstore/pkg/config"
	embeddingutils "github.com/semstore/semstore/pkg/embeddings/utils"
	"github.com/semstore/semstore/pkg/index"
	"github.com/semstore/semstore/pkg/logger"
	"github.com/semstore/semstore/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

type queryCommander struct {
	prompt   string
	topK     int
	itemType string
	quiet    bool

	storePath string

	provider      string
	target        string
	model         string
	apiKeyEnv     string
	maxInputBytes int

	debug  bool
	logger *zap.Logger
}

const queryLongDesc string = `Query the store by meaning.

Embeds the query text and returns the stored items most similar to it,
ranked by descending similarity. The same embedding configuration used for
sync should be used for query; mixing embedders gives meaningless scores.

Use --type to restrict results to items of a given metadata type.
Use --quiet to output only item ids, one per line, for piping.

Examples:
  semstore query "how do I configure logging?"
  semstore query "error handling patterns" --top 10
  semstore query "release checklist" --type file
  vim $(semstore query "release checklist" --quiet --top 1)`

const queryShortDesc string = "Query the store by meaning"

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.resolveConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.prompt = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &cmder.storePath)
	config.AddIntFlag(cmd, config.Flags, config.FlagQueryTopK, &cmder.topK)
	cmd.Flags().StringVarP(&cmder.itemType, "type", "t", "", "Only return items of this metadata type")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only item ids, one per line (for piping)")

	return cmd
}

func (c *queryCommander) resolveConfig(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, []string{
		config.FlagStorePath,
		config.FlagQueryTopK,
	})

	c.storePath = v.GetString("store.path")
	c.topK = v.GetInt("query.top_k")
	c.provider = v.GetString("embedding.provider")
	c.target = v.GetString("embedding.target")
	c.model = v.GetString("embedding.model")
	c.apiKeyEnv = v.GetString("embedding.api_key_env")
	c.maxInputBytes = v.GetInt("embedding.max_input_bytes")

	if c.storePath == "" {
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		c.storePath = cfger.StorePath(nil)
	}

	return nil
}

func (c *queryCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	store, err := index.Load(c.storePath)
	if err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType:  c.provider,
		TargetURL:     c.target,
		Model:         c.model,
		MaxInputBytes: c.maxInputBytes,
		APIKeyEnv:     c.apiKeyEnv,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	var filter index.FilterFunc
	if c.itemType != "" {
		filter = index.TypeFilter(c.itemType)
	}

	querier := index.NewQuerier(embedder, c.logger)
	results, err := querier.Query(ctx, c.prompt, c.topK, store, filter)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range results {
			fmt.Println(result.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Results for:"),
		idStyle.Render(fmt.Sprintf("%q", c.prompt)),
	)

	for i, result := range results {
		printResult(i+1, result)
	}

	return nil
}

func printResult(rank int, result index.Result) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render(result.ID),
	)

	if t := result.Meta[index.MetaTypeKey]; t != "" {
		fmt.Printf("  %s\n", typeStyle.Render("type: "+t))
	}

	preview := strings.ReplaceAll(result.Content, "\n", " ")
	preview = utils.Truncate(preview, 160)
	fmt.Printf("  %s\n\n", previewStyle.Render(preview))
}
