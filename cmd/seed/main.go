package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var firstNames = []string{
	"Anna", "Ben", "Clara", "David", "Emma", "Felix", "Greta", "Hannes",
	"Ida", "Jonas", "Katja", "Lukas", "Mia", "Niklas", "Olivia", "Paul",
}

var lastNames = []string{
	"Bauer", "Fischer", "Hoffmann", "Keller", "Lehmann", "Meyer",
	"Richter", "Schneider", "Vogel", "Weber",
}

var noteTemplates = []string{
	"prefers evening calls",
	"asked for a callback",
	"existing customer",
	"speaks English only",
}

// generator produces fake agents and records from a fixed seed so runs
// are repeatable.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *generator) agent(i int) map[string]interface{} {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]
	return map[string]interface{}{
		"name":   fmt.Sprintf("%s %s", first, last),
		"email":  fmt.Sprintf("%s.%s.%03d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
		"mobile": g.phone(),
	}
}

func (g *generator) phone() string {
	digits := make([]byte, 8)
	for i := range digits {
		digits[i] = byte('0' + g.rng.Intn(10))
	}
	return "49157" + string(digits)
}

func (g *generator) records(n int) []map[string]string {
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		rec := map[string]string{
			"firstName": firstNames[g.rng.Intn(len(firstNames))],
			"phone":     g.phone(),
		}
		if g.rng.Intn(4) == 0 {
			rec["notes"] = noteTemplates[g.rng.Intn(len(noteTemplates))]
		}
		out = append(out, rec)
	}
	return out
}

// apiClient posts seed data to a running distributer server.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *apiClient) post(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + path
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s returned status %d", url, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func main() {
	// CLI flags
	var (
		serverURL   = flag.String("url", "http://localhost:8080", "Distributer server URL")
		agentCount  = flag.Int("agents", 5, "Number of agents to create")
		recordCount = flag.Int("records", 50, "Number of records to upload")
		strategy    = flag.String("strategy", "equal", "Distribution strategy (equal, weighted, priority)")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Setup logger
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Str("service", "seed").
		Logger()

	gen := newGenerator(*seed)
	client := newAPIClient(*serverURL)

	logger.Info().Int("count", *agentCount).Int64("seed", *seed).Msg("creating agents")
	for i := 0; i < *agentCount; i++ {
		payload := gen.agent(i)
		var created struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := client.post("/api/agents", payload, &created); err != nil {
			logger.Fatal().Err(err).Msg("failed to create agent")
		}
		logger.Debug().Str("agent_id", created.ID).Str("name", created.Name).Msg("agent created")
	}

	logger.Info().Int("count", *recordCount).Str("strategy", *strategy).Msg("uploading records")
	var dist struct {
		ID     string `json:"id"`
		Agents []struct {
			AgentName     string `json:"agentName"`
			AssignedCount int    `json:"assignedCount"`
		} `json:"agents"`
		Summary struct {
			FairnessScore        float64 `json:"fairnessScore"`
			DistributionVariance int     `json:"distributionVariance"`
		} `json:"summary"`
	}
	err = client.post("/api/distributions", map[string]interface{}{
		"fileName":   fmt.Sprintf("seed-%d.csv", *seed),
		"strategy":   *strategy,
		"uploadedBy": "seed",
		"records":    gen.records(*recordCount),
	}, &dist)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create distribution")
	}

	logger.Info().
		Str("distribution_id", dist.ID).
		Float64("fairness", dist.Summary.FairnessScore).
		Int("variance", dist.Summary.DistributionVariance).
		Msg("distribution created")
	for _, g := range dist.Agents {
		logger.Info().Str("agent", g.AgentName).Int("records", g.AssignedCount).Msg("assigned")
	}
}
