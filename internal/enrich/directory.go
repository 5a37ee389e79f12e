// Package enrich holds the synchronous cross-service lookups used to attach
// human-readable context to projected results. The read path degrades
// gracefully: enrichment failure yields placeholder authors, never a failed
// request.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"socialgrid/pkg/logger"
)

// Author is the user summary attached to posts, comments, and notifications.
type Author struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	FirstName  string  `json:"first_name,omitempty"`
	LastName   string  `json:"last_name,omitempty"`
	Avatar     *string `json:"avatar"`
	IsVerified bool    `json:"is_verified,omitempty"`
}

// Placeholder is what readers see when the user directory cannot be reached.
func Placeholder(id string) Author {
	return Author{ID: id, Username: "Unknown User"}
}

// Directory batch-fetches user summaries from the user directory service.
// Calls are bounded by a timeout and a consecutive-failure circuit breaker so
// a hanging directory cannot stall every list read or event handler.
type Directory struct {
	baseURL string
	hc      *http.Client
	br      *breaker
	group   singleflight.Group
}

type DirectoryConfig struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func NewDirectory(cfg DirectoryConfig) *Directory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Directory{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: cfg.Timeout},
		br:      newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
}

// BatchFetchUsers returns a map of id to summary for the ids the directory
// knows. On partial or total failure it returns whatever it got (possibly
// nothing) and never an error: availability of core data over completeness
// of decoration.
func (d *Directory) BatchFetchUsers(ctx context.Context, ids []string) map[string]Author {
	if len(ids) == 0 {
		return map[string]Author{}
	}
	unique := dedupeSorted(ids)

	if !d.br.allow() {
		logger.Debug(ctx, "User batch fetch skipped, circuit open", "ids", len(unique))
		return map[string]Author{}
	}

	// Concurrent readers asking for the same id set share one request.
	key := strings.Join(unique, ",")
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		return d.fetchBatch(ctx, unique)
	})
	if err != nil {
		d.br.failure()
		logger.Warn(ctx, "User batch fetch failed, degrading to placeholders", "error", err)
		return map[string]Author{}
	}
	d.br.success()
	return v.(map[string]Author)
}

// Authors returns one entry per input id, in input order, substituting a
// placeholder for every id the directory could not resolve.
func (d *Directory) Authors(ctx context.Context, ids []string) []Author {
	found := d.BatchFetchUsers(ctx, ids)
	out := make([]Author, len(ids))
	for i, id := range ids {
		if a, ok := found[id]; ok {
			out[i] = a
		} else {
			out[i] = Placeholder(id)
		}
	}
	return out
}

func (d *Directory) fetchBatch(ctx context.Context, ids []string) (map[string]Author, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/users/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user directory returned %d", resp.StatusCode)
	}

	var decoded struct {
		Users []Author `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	out := make(map[string]Author, len(decoded.Users))
	for _, u := range decoded.Users {
		out[u.ID] = u
	}
	return out, nil
}

func dedupeSorted(ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
