package gridgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Polling cadence for in-flight races.
const (
	racePollInterval = 50 * time.Millisecond
	racePollBudget   = 30 * time.Second
)

// httpClient wraps http.Client with a shared timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *httpClient) post(ctx context.Context, url string, in, out interface{}) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// raceRequest is the wire shape for POST /races.
type raceRequest struct {
	TrackID int64 `json:"track_id"`
	Seed    int64 `json:"seed"`
}

// runSeason schedules every race of the season concurrently and waits
// for each to reach the applied stage.
func runSeason(ctx context.Context, config *Config, trackIDs []int64, stats *Stats) error {
	total := config.Rounds * len(trackIDs)
	log.Printf("🏁 Running %d rounds over %d tracks (%d races) with %d workers...",
		config.Rounds, len(trackIDs), total, config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		completed int64
		failed    int64
	)

	type leg struct {
		trackID int64
		seed    int64
	}
	legs := make(chan leg, config.Workers*2)

	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range legs {
				if err := runRace(ctx, client, config, l.trackID, l.seed); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Printf("⚠️  Race on track %d failed: %v", l.trackID, err)
					continue
				}
				atomic.AddInt64(&completed, 1)
			}
		}()
	}

	// Seeds are derived per leg so replays of the same season config
	// reproduce bit for bit.
	seq := int64(0)
	for round := 0; round < config.Rounds; round++ {
		for _, trackID := range trackIDs {
			select {
			case <-ctx.Done():
				close(legs)
				wg.Wait()
				return fmt.Errorf("season cancelled: %w", ctx.Err())
			case legs <- leg{trackID: trackID, seed: config.Seed + seq*1_000_003}:
				seq++
			}
		}
	}
	close(legs)
	wg.Wait()

	stats.RacesScheduled = total
	stats.RacesCompleted = int(atomic.LoadInt64(&completed))
	stats.RacesFailed = int(atomic.LoadInt64(&failed))

	if stats.RacesFailed > 0 {
		return fmt.Errorf("%d of %d races failed", stats.RacesFailed, total)
	}
	log.Printf("✅ All %d races completed", stats.RacesCompleted)
	return nil
}

// runRace schedules one race and polls until it is applied.
func runRace(ctx context.Context, client *httpClient, config *Config, trackID, seed int64) error {
	var ack ackResponse
	status, err := client.post(ctx, config.BaseURL+"/races", raceRequest{TrackID: trackID, Seed: seed}, &ack)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("schedule: unexpected status %d", status)
	}

	deadline := time.Now().Add(racePollBudget)
	for time.Now().Before(deadline) {
		var rs raceStatus
		code, err := client.get(ctx, config.BaseURL+"/races/"+ack.RaceID, &rs)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if code == http.StatusOK && rs.Stage == "applied" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(racePollInterval):
		}
	}
	return fmt.Errorf("race %s did not finish within %s", ack.RaceID, racePollBudget)
}

// fetchStandings retrieves the championship table.
func fetchStandings(ctx context.Context, config *Config, limit int, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)

	var resp struct {
		Standings []Entry `json:"standings"`
	}
	code, err := client.get(ctx, fmt.Sprintf("%s/standings?limit=%d", config.BaseURL, limit), &resp)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("standings: unexpected status %d", code)
	}

	stats.StandingsEntries = len(resp.Standings)
	return resp.Standings, nil
}

// checkServiceHealth verifies the service is running before the season
// starts.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	code, err := client.get(ctx, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", code)
	}
	return nil
}
