// Command covermatch-worker serves ranked-match requests as JSON lines:
// one request object per stdin line, one response object per stdout line.
// Responses carry "status":"ok" with the ranked rows, or "status":"error"
// with a message. The process loads the catalog once at startup; send
// {"cmd":"reload"} to pick up a new catalog file without restarting.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/covermatch/covermatch"
	"github.com/covermatch/covermatch/blobstore"
)

func main() {
	var (
		catalogPath = flag.String("catalog", os.Getenv("COVERMATCH_CATALOG"), "path to the catalog file (.csv, .csv.gz or .csv.lz4)")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if *catalogPath == "" {
		fatal("no catalog file: set -catalog or COVERMATCH_CATALOG")
	}

	level := parseLevel(*logLevel)

	ctx := context.Background()

	dir, name := splitCatalogPath(*catalogPath)
	store := blobstore.NewLocalStore(dir)

	engine, err := covermatch.New(ctx, store, name,
		covermatch.WithLogLevel(level),
	)
	if err != nil {
		fatal(fmt.Sprintf("catalog load failed: %v", err))
	}

	serve(ctx, engine)
}

func serve(ctx context.Context, engine *covermatch.Engine) {
	out := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(out)

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var req map[string]any
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			writeErr(enc, out, fmt.Sprintf("bad_request: %v", err))
			continue
		}

		if cmd, _ := stringField(req, "cmd"); cmd == "reload" {
			if err := engine.Reload(ctx); err != nil {
				writeErr(enc, out, fmt.Sprintf("reload_failed: %v", err))
			} else {
				write(enc, out, map[string]any{"status": "ok", "reloaded": true})
			}
			continue
		}

		resp := handle(ctx, engine, req)
		write(enc, out, resp)
	}
}

func handle(ctx context.Context, engine *covermatch.Engine, req map[string]any) map[string]any {
	pivot, okPivot := stringField(req, "gender", "sex", "성별")
	jobText, okJob := stringField(req, "job", "직업")
	age, okAge := floatField(req, "age", "나이")
	premium, okPremium := floatField(req, "desiredPremium", "premium", "보험료")
	coverage, okCoverage := floatField(req, "desiredCoverage", "coverage", "지급금액")

	if !okPivot || !okJob || !okAge || !okPremium || !okCoverage {
		return errResp("missing_fields: need gender, age, job, premium, coverage")
	}

	q := covermatch.NewQuery(pivot, premium, coverage, age, jobText)

	modeText, _ := stringField(req, "sort_by", "sortBy", "sort", "order", "정렬", "정렬순")
	mode, err := covermatch.ParseMode(modeText)
	if err != nil {
		return errResp(fmt.Sprintf("bad_request: %v", err))
	}
	q.Mode = mode

	if k, ok := floatField(req, "k", "topk"); ok {
		q.K = int(k)
	}
	if v, ok := floatField(req, "risk_weight"); ok {
		q.RiskWeight = v
	}
	if v, ok := floatField(req, "job_weight"); ok {
		q.JobWeight = v
	}
	if v, ok := boolField(req, "risk_filter"); ok {
		q.RiskFilter = v
	}
	if v, ok := boolField(req, "job_filter"); ok {
		q.JobFilter = v
	}
	if v, ok := boolField(req, "unique_products"); ok {
		q.UniqueProducts = v
	}
	if v, ok := boolField(req, "autoscale"); ok {
		q.Autoscale = v
	}
	if r, ok := stringField(req, "risk", "위험도"); ok {
		q.RiskText = r
	}

	// Apply autoscale up front so the meta block can report the effective
	// targets alongside the raw inputs.
	autoscaleReq := q.Autoscale
	if q.Autoscale {
		scaled, err := engine.ApplyAutoscale(q)
		if err != nil {
			return errResp(fmt.Sprintf("rank_failed: %v", err))
		}
		q = scaled
	}

	matches, err := engine.RankMatches(ctx, q)
	if err != nil {
		return errResp(fmt.Sprintf("rank_failed: %v", err))
	}
	if matches == nil {
		matches = []covermatch.RankedMatch{}
	}

	resp := map[string]any{
		"status": "ok",
		"top":    matches,
		"items":  matches,
	}

	if debug, _ := boolField(req, "debug"); debug {
		resp["meta"] = map[string]any{
			"sort_by_input":      modeText,
			"sort_by_used":       q.Mode.String(),
			"k":                  q.K,
			"returned":           len(matches),
			"gender_input":       pivot,
			"job_text":           jobText,
			"premium_input_raw":  premium,
			"coverage_input_raw": coverage,
			"premium_used":       q.Premium,
			"coverage_used":      q.Coverage,
			"autoscale":          autoscaleReq,
			"risk_weight":        q.RiskWeight,
			"job_weight":         q.JobWeight,
			"risk_filter":        q.RiskFilter,
			"job_filter":         q.JobFilter,
			"unique_products":    q.UniqueProducts,
		}
	}

	return resp
}

func write(enc *json.Encoder, out *bufio.Writer, obj map[string]any) {
	if err := enc.Encode(obj); err != nil {
		slog.Error("encode response", "error", err)
	}
	if err := out.Flush(); err != nil {
		slog.Error("flush response", "error", err)
	}
}

func writeErr(enc *json.Encoder, out *bufio.Writer, msg string) {
	write(enc, out, errResp(msg))
}

func errResp(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}

func stringField(req map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := req[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		}
	}
	return "", false
}

func floatField(req map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := req[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func boolField(req map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := req[k]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return parsed, true
			}
		case float64:
			return b != 0, true
		}
	}
	return false, false
}

func splitCatalogPath(path string) (dir, name string) {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return ".", path
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stdout, `{"status":"error","message":`+strconv.Quote(msg)+`}`)
	os.Exit(1)
}
