// Package market fetches the news headline and rate modifier that scale
// mining income.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var ErrNotConfigured = errors.New("market: oracle not configured")

// Report is one market update.
type Report struct {
	Headline string  `json:"headline"`
	Modifier float64 `json:"modifier"`
	Source   string  `json:"source,omitempty"`
}

func (r Report) valid() bool {
	return r.Headline != "" && r.Modifier > 0 && !math.IsInf(r.Modifier, 0) && !math.IsNaN(r.Modifier)
}

// Oracle produces market reports seeded with the current modifier.
type Oracle interface {
	Fetch(ctx context.Context, current float64) (Report, error)
}

// HTTPOracle asks a remote news generator for a report.
type HTTPOracle struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

type fetchRequest struct {
	CurrentModifier float64 `json:"current_modifier"`
}

func (o *HTTPOracle) Fetch(ctx context.Context, current float64) (Report, error) {
	if o == nil || o.Endpoint == "" || o.APIKey == "" {
		return Report{}, ErrNotConfigured
	}
	body, err := json.Marshal(fetchRequest{CurrentModifier: current})
	if err != nil {
		return Report{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Report{}, fmt.Errorf("market: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("market: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("market: status %d", resp.StatusCode)
	}
	var r Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("market: decode: %w", err)
	}
	if !r.valid() {
		return Report{}, fmt.Errorf("market: invalid report %+v", r)
	}
	r.Source = "remote"
	return r, nil
}

var fallbackHeadlines = []string{
	"Silicon futures steady as foundries report full order books",
	"Copper prices wobble on rumours of a new vein",
	"Analysts shrug as rig output holds flat",
	"Scrap dealers report brisk trade after the storm season",
	"Coal shipments delayed, traders stay calm",
	"Circuit makers hint at a quiet quarter",
}

// Fallback generates local reports: a canned headline and a modifier
// within 10% of 1.0.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewFallback(seed int64) *Fallback {
	return &Fallback{rng: rand.New(rand.NewSource(seed))}
}

func (f *Fallback) Fetch(_ context.Context, _ float64) (Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Report{
		Headline: fallbackHeadlines[f.rng.Intn(len(fallbackHeadlines))],
		Modifier: 1.0 + (f.rng.Float64()*0.2 - 0.1),
		Source:   "local",
	}, nil
}

// withTimeout is used for every remote call so a slow provider cannot hold
// a poll open past the next one.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
