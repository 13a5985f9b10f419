package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docsim/internal/analysis"
	"docsim/internal/config"
	"docsim/internal/report"
	"docsim/internal/walker"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing document similarity tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	log, closeLog, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	engine := analysis.New(analysis.Options{Logger: log})

	s := mcpserver.NewMCPServer("docsim", "1.0.0", mcpserver.WithToolCapabilities(false))
	s.AddTool(findSimilarTool(), makeFindSimilarHandler(base, engine))
	s.AddTool(listCandidatesTool(), makeListCandidatesHandler(base))

	log.Info("mcp server ready", "path", base.SearchPath)
	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func findSimilarTool() mcp.Tool {
	return mcp.NewTool("find_similar_documents",
		mcp.WithDescription("Fuzzily score every text document under a directory against a query and return the best matching files with their top chunks and byte offsets."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for"),
		),
		mcp.WithString("path",
			mcp.Description("Directory or file to search (default: the server's configured path)"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma separated extensions to include, e.g. '.md,.txt'"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum score between 0 and 1 for a file to be listed"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Chunks to return per file"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of files to return (default 10)"),
		),
	)
}

func listCandidatesTool() mcp.Tool {
	return mcp.NewTool("list_candidate_files",
		mcp.WithDescription("List the files a search would consider under a directory, after extension, depth, size and ignore filtering."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Description("Directory or file to search (default: the server's configured path)"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma separated extensions to include"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum directory depth"),
		),
	)
}

// --- Handler factories ---

// toolConfig applies the per-call arguments on top of base.
func toolConfig(base config.Config, req mcp.CallToolRequest) config.Config {
	cfg := base.Clone()
	cfg.Query = req.GetString("query", cfg.Query)
	cfg.SearchPath = req.GetString("path", cfg.SearchPath)
	if exts := req.GetString("extensions", ""); exts != "" {
		cfg.Extensions = config.NormalizeExtensions([]string{exts})
	}
	cfg.Threshold = req.GetFloat("threshold", cfg.Threshold)
	cfg.TopN = req.GetInt("top_n", cfg.TopN)
	cfg.MaxDepth = req.GetInt("max_depth", cfg.MaxDepth)
	return cfg
}

func makeFindSimilarHandler(base config.Config, engine *analysis.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if req.GetString("query", "") == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		cfg := toolConfig(base, req)
		if err := cfg.Check(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		maxResults := req.GetInt("max_results", 10)
		if maxResults <= 0 {
			maxResults = 10
		}

		res, err := walker.Discover(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %v", err)), nil
		}
		if len(res.Files) == 0 {
			return mcp.NewToolResultError(walker.NoFilesError(cfg.SearchPath, cfg.Extensions).Error()), nil
		}

		results, err := engine.Analyse(ctx, res.Files, cfg)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		if len(results) > maxResults {
			results = results[:maxResults]
		}
		return mcp.NewToolResultText(report.Markdown(cfg.Query, results)), nil
	}
}

func makeListCandidatesHandler(base config.Config) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := toolConfig(base, req)
		if err := config.CheckPath(cfg.SearchPath); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := walker.Discover(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatCandidates(cfg, res)), nil
	}
}

// --- Formatting helpers ---

func formatCandidates(cfg config.Config, res walker.Result) string {
	if len(res.Files) == 0 {
		return walker.NoFilesError(cfg.SearchPath, cfg.Extensions).Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Candidate files under `%s` (%d, extensions %s, depth %d)\n\n",
		cfg.SearchPath, len(res.Files), strings.Join(cfg.Extensions, ", "), res.MaxDepth)
	for _, f := range res.Files {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	return sb.String()
}
