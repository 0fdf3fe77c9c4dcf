package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/serprank/models"
)

func main() {
	apiURL := os.Getenv("SERPRANK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	c := &apiClient{
		baseURL: apiURL,
		apiKey:  os.Getenv("SERPRANK_API_KEY"),
		http:    &http.Client{Timeout: 10 * time.Minute},
	}

	s := server.NewMCPServer(
		"serprank",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	checkRankTool := mcp.NewTool("check_rank",
		mcp.WithDescription("Find where a domain ranks in Google results for a keyword. Walks result pages in order and stops at the first result whose URL contains the target."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Domain or URL fragment to look for, e.g. 'example.com'"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Result pages to scan (default: 5, max: 10)"),
		),
		mcp.WithString("mode",
			mcp.Description("'multi' (default) scans up to max_pages; 'top10' checks the first page only"),
			mcp.Enum("multi", "top10"),
		),
	)
	s.AddTool(checkRankTool, handleCheckRank(c))

	batchTool := mcp.NewTool("check_rank_batch",
		mcp.WithDescription("Check the rank of one domain for several keywords at once. Each keyword is an independent query."),
		mcp.WithArray("keywords",
			mcp.Required(),
			mcp.Description("Search queries to check (max 20)"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Domain or URL fragment to look for"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Result pages to scan per keyword (default: 5, max: 10)"),
		),
	)
	s.AddTool(batchTool, handleCheckRankBatch(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiClient talks to a running serprank server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// do sends the request and decodes a 200 body into out, or the error body
// into an error.
func (c *apiClient) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
			return fmt.Errorf("API returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", formatError(e))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *apiClient) rank(ctx context.Context, keyword, target string, maxPages int, mode string) (*models.RankResponse, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("target", target)
	if maxPages > 0 {
		q.Set("maxPages", strconv.Itoa(maxPages))
	}
	if mode != "" {
		q.Set("mode", mode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/rank?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var resp models.RankResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) rankBatch(ctx context.Context, payload models.BatchRequest) (*models.BatchResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/rank/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.BatchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func handleCheckRank(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword is required"), nil
		}
		target, err := request.RequireString("target")
		if err != nil {
			return mcp.NewToolResultError("target is required"), nil
		}

		resp, err := c.rank(ctx, keyword, target, intArg(request, "max_pages"), request.GetString("mode", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatRank(resp)), nil
	}
}

func handleCheckRankBatch(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keywords, err := request.RequireStringSlice("keywords")
		if err != nil {
			return mcp.NewToolResultError("keywords is required and must be an array of strings"), nil
		}
		target, err := request.RequireString("target")
		if err != nil {
			return mcp.NewToolResultError("target is required"), nil
		}

		resp, err := c.rankBatch(ctx, models.BatchRequest{
			Keywords: keywords,
			Target:   target,
			MaxPages: intArg(request, "max_pages"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatBatch(resp)), nil
	}
}

// intArg reads an optional numeric argument. JSON numbers arrive as float64.
func intArg(request mcp.CallToolRequest, name string) int {
	switch v := request.GetArguments()[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
