package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type submitResp struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		EnrichedQuestions []map[string]any `json:"enriched_questions"`
	} `json:"data"`
}

type jobResp struct {
	JobID   string         `json:"job_id"`
	Status  string         `json:"status"`
	Summary map[string]int `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
	Result  *envelope      `json:"result,omitempty"`
}

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8000")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8000)")
	tokenFlag := flag.String("token", token, "API token")
	waitJob := flag.Duration("wait", 30*time.Second, "How long to poll for the async job")
	flag.Parse()

	httpc := &http.Client{Timeout: 12 * time.Second}

	// First pass: two fresh questions, no regeneration context.
	first := map[string]any{
		"params": map[string]any{
			"questions": []map[string]any{
				{"text": "Q1", "topic": "algebra"},
				{"text": "Q2", "topic": "geometry"},
			},
			"validation_results": []map[string]any{
				{"valid": true, "score": 10, "issues": []string{}},
				{"valid": false, "score": 3, "issues": []string{"too vague"}},
			},
			"original_scores": []any{},
		},
	}
	var env envelope
	if err := postJSON(httpc, *baseFlag+"/enrich", *tokenFlag, first, &env); err != nil {
		fatalf("invoke: %v", err)
	}
	expect(env.Message == "Enriched 2 questions with validation metadata.", "unexpected message %q", env.Message)
	expect(status(env, 0) == "approved", "Q1 status = %q", status(env, 0))
	expect(status(env, 1) == "needs_review", "Q2 status = %q", status(env, 1))
	fmt.Printf("✅ Invoke: %s\n", env.Message)

	// Regeneration pass for Q2 through the async path.
	regen := map[string]any{
		"params": map[string]any{
			"questions":          []map[string]any{{"text": "Q2 (regenerated)"}, {"text": "Q2 (regenerated, worse)"}},
			"validation_results": []map[string]any{{"valid": true, "score": 7}, {"valid": true, "score": 2}},
			"original_scores":    []any{3, 3},
		},
	}
	var sub submitResp
	if err := postJSON(httpc, *baseFlag+"/enrichments", *tokenFlag, regen, &sub); err != nil {
		fatalf("submit: %v", err)
	}
	fmt.Printf("✅ Submitted job: id=%s status=%s\n", sub.JobID, sub.Status)

	deadline := time.Now().Add(*waitJob)
	var job jobResp
	for {
		if err := getJSON(httpc, fmt.Sprintf("%s/enrichments/%s", *baseFlag, sub.JobID), *tokenFlag, &job); err != nil {
			fatalf("get job: %v", err)
		}
		if job.Status == "done" || job.Status == "failed" {
			break
		}
		if time.Now().After(deadline) {
			fatalf("job %s still %s after %s", sub.JobID, job.Status, *waitJob)
		}
		time.Sleep(1 * time.Second)
	}
	expect(job.Status == "done", "job failed: %s", job.Error)
	expect(job.Result != nil, "job result missing")
	expect(status(*job.Result, 0) == "approved", "regenerated status = %q", status(*job.Result, 0))
	expect(status(*job.Result, 1) == "discarded", "worse regeneration status = %q", status(*job.Result, 1))
	fmt.Printf("✅ Job done: %s\n", compactJSON(job.Summary))

	fmt.Printf("🎉 Smoke run OK. JobID=%s\n", sub.JobID)
}

// --- helpers ---

func status(env envelope, i int) string {
	if i >= len(env.Data.EnrichedQuestions) {
		return ""
	}
	s, _ := env.Data.EnrichedQuestions[i]["validation-status"].(string)
	return s
}

func expect(ok bool, format string, args ...any) {
	if !ok {
		fatalf(format, args...)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func postJSON(c *http.Client, url, bearer string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("POST %s -> %d: %s", url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func getJSON(c *http.Client, url, bearer string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("GET %s -> %d: %s", url, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func compactJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
