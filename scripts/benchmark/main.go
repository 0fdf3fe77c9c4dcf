package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/serprank/models"
)

var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "serprank API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	target   = flag.String("target", "go.dev", "domain to look for")
	keywords = flag.String("keywords", "golang,go tutorial,go generics,go modules,goroutines", "comma-separated keywords")
	maxPages = flag.Int("max-pages", 3, "pages per query")
	runs     = flag.Int("runs", 3, "runs per keyword")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

type runResult struct {
	Run          int    `json:"run"`
	LatencyMs    int64  `json:"latency_ms"`
	HTTPStatus   int    `json:"http_status"`
	ActiveRank   *int   `json:"active_rank"`
	PagesFetched int    `json:"pages_fetched"`
	Results      int    `json:"results"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type keywordResult struct {
	Keyword      string      `json:"keyword"`
	Runs         []runResult `json:"runs"`
	AvgLatencyMs float64     `json:"avg_latency_ms"`
	MsPerPage    float64     `json:"ms_per_page"`
	RankStable   bool        `json:"rank_stable"`
}

type benchmarkReport struct {
	Timestamp      string          `json:"timestamp"`
	APIURL         string          `json:"api_url"`
	Target         string          `json:"target"`
	RunsPerKeyword int             `json:"runs_per_keyword"`
	Results        []keywordResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== serprank benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Target:    %s\n", *target)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Println()

	client := &http.Client{Timeout: 5 * time.Minute}
	if err := checkAPI(client, *apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		APIURL:         *apiURL,
		Target:         *target,
		RunsPerKeyword: *runs,
	}

	for _, kw := range strings.Split(*keywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		fmt.Printf("Benchmarking %q ...\n", kw)
		kr := keywordResult{Keyword: kw}
		for i := 1; i <= *runs; i++ {
			rr := runQuery(client, kw, i)
			if rr.Success {
				fmt.Printf("  Run %d/%d  OK  %dms  rank=%s  pages=%d\n", i, *runs, rr.LatencyMs, rankString(rr.ActiveRank), rr.PagesFetched)
			} else {
				fmt.Printf("  Run %d/%d  FAILED: %s\n", i, *runs, rr.Error)
			}
			kr.Runs = append(kr.Runs, rr)
		}
		summarize(&kr)
		report.Results = append(report.Results, kr)
	}

	fmt.Println()
	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func runQuery(client *http.Client, keyword string, run int) runResult {
	rr := runResult{Run: run}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("target", *target)
	q.Set("maxPages", strconv.Itoa(*maxPages))

	req, err := http.NewRequest(http.MethodGet, *apiURL+"/api/v1/rank?"+q.Encode(), nil)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		rr.Error = fmt.Sprintf("%d %s: %s", resp.StatusCode, e.Code, e.Details)
		return rr
	}

	var body models.RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.Success = true
	rr.ActiveRank = body.ActiveRank
	rr.PagesFetched = body.PagesFetched
	rr.Results = len(body.Results)
	return rr
}

// summarize fills averages and whether every successful run agreed on the rank.
func summarize(kr *keywordResult) {
	var n, pages int
	var total int64
	var first *int
	kr.RankStable = true
	for _, r := range kr.Runs {
		if !r.Success {
			continue
		}
		if n == 0 {
			first = r.ActiveRank
		} else if rankString(first) != rankString(r.ActiveRank) {
			kr.RankStable = false
		}
		n++
		total += r.LatencyMs
		pages += r.PagesFetched
	}
	if n == 0 {
		kr.RankStable = false
		return
	}
	kr.AvgLatencyMs = float64(total) / float64(n)
	if pages > 0 {
		kr.MsPerPage = float64(total) / float64(pages)
	}
}

func printTable(results []keywordResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Keyword\tAvg Latency\tms/page\tRank\tStable\n")
	for _, r := range results {
		if r.AvgLatencyMs == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", r.Keyword)
			continue
		}
		rank := "-"
		for _, run := range r.Runs {
			if run.Success {
				rank = rankString(run.ActiveRank)
				break
			}
		}
		fmt.Fprintf(w, "%s\t%.0fms\t%.0f\t%s\t%v\n", r.Keyword, r.AvgLatencyMs, r.MsPerPage, rank, r.RankStable)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func rankString(r *int) string {
	if r == nil {
		return "n/a"
	}
	return strconv.Itoa(*r)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
