// webhook-sender posts synthetic execution reports at the ingestion endpoint,
// for manual end-to-end testing. It is a standalone tool, not part of the
// service.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type payload struct {
	WorkflowID      string         `json:"workflow_id"`
	Status          string         `json:"status"`
	ExecutionID     string         `json:"execution_id,omitempty"`
	Platform        string         `json:"platform,omitempty"`
	StartedAt       string         `json:"started_at,omitempty"`
	FinishedAt      string         `json:"finished_at,omitempty"`
	ExecutionTimeMS *int64         `json:"execution_time_ms,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

var platforms = []string{"n8n", "zapier", "make", "retell", "custom"}

func main() {
	var (
		target   = flag.String("target", "http://localhost:8080/api/webhook/execution", "ingestion endpoint URL")
		apiKey   = flag.String("key", os.Getenv("ROISHEET_API_KEY"), "API key (defaults to ROISHEET_API_KEY)")
		workflow = flag.String("workflow", "wf-demo", "workflow id to report")
		count    = flag.Int("count", 1, "number of reports to send")
		errRate  = flag.Float64("error-rate", 0.1, "fraction of reports with error status")
		dup      = flag.Bool("dup", false, "resend every report once to exercise idempotency")
	)
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("no API key: pass -key or set ROISHEET_API_KEY")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < *count; i++ {
		p := buildPayload(*workflow, *errRate)

		send(client, *target, *apiKey, p)
		if *dup {
			send(client, *target, *apiKey, p)
		}
	}
}

func buildPayload(workflow string, errRate float64) payload {
	status := "success"
	if rand.Float64() < errRate {
		status = "error"
	}

	execMS := int64(500 + rand.Intn(15000))
	started := time.Now().UTC().Add(-time.Duration(execMS) * time.Millisecond)
	finished := time.Now().UTC()

	return payload{
		WorkflowID:      workflow,
		Status:          status,
		ExecutionID:     fmt.Sprintf("sender-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000)),
		Platform:        platforms[rand.Intn(len(platforms))],
		StartedAt:       started.Format(time.RFC3339),
		FinishedAt:      finished.Format(time.RFC3339),
		ExecutionTimeMS: &execMS,
		Metadata:        map[string]any{"source": "webhook-sender"},
	}
}

func send(client *http.Client, target, apiKey string, p payload) {
	body, err := json.Marshal(p)
	if err != nil {
		log.Fatalf("marshal payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("%s %d: %s", p.ExecutionID, resp.StatusCode, bytes.TrimSpace(respBody))
}
