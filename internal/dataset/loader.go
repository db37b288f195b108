// Package dataset loads labeled hand-landmark collections for
// training. A source is a JSON document mapping sample IDs to tracker
// records; sources are local files or HTTP(S) URLs.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/landmarks"
)

// ErrDataNotFound means a training source does not exist. Fatal to a
// training run.
var ErrDataNotFound = errors.New("dataset: source not found")

// record is one stored tracker observation: the outer list indexes
// detected hands, the inner list the 21 points of one hand.
type record struct {
	Landmarks [][][]float64 `json:"landmarks"`
}

// Result is one loaded class: valid hands, the repeated class label,
// and how many records were skipped as unusable.
type Result struct {
	Hands   []landmarks.Hand
	Labels  []int
	Skipped int
}

// Loader reads labeled landmark sources.
type Loader struct {
	http *resty.Client
}

// NewLoader builds a loader; timeout bounds HTTP source fetches.
func NewLoader(timeout time.Duration) *Loader {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	return &Loader{http: r}
}

// Load reads one class source and returns its usable hands with the
// given label. Records with no detected hands, or whose first hand is
// not exactly 21 points, are skipped and counted, never fatal. Only
// the first detected hand of each record is used. Sample IDs are
// consumed in sorted order so a seeded split downstream is
// reproducible.
func (l *Loader) Load(src string, label int) (*Result, error) {
	raw, err := l.fetch(src)
	if err != nil {
		return nil, err
	}

	var samples map[string]record
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", src, err)
	}

	ids := make([]string, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := &Result{}
	for _, id := range ids {
		rec := samples[id]
		if len(rec.Landmarks) == 0 {
			res.Skipped++
			continue
		}
		hand, err := landmarks.FromPairs(rec.Landmarks[0])
		if err != nil {
			res.Skipped++
			continue
		}
		res.Hands = append(res.Hands, hand)
		res.Labels = append(res.Labels, label)
	}

	log.Info().
		Str("source", src).
		Int("label", label).
		Int("loaded", len(res.Hands)).
		Int("skipped", res.Skipped).
		Msg("dataset source loaded")
	return res, nil
}

func (l *Loader) fetch(src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := l.http.R().Get(src)
		if err != nil {
			return nil, fmt.Errorf("dataset: fetch %s: %w", src, err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, src)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("dataset: fetch %s: status %d", src, resp.StatusCode())
		}
		return resp.Body(), nil
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, src)
		}
		return nil, fmt.Errorf("dataset: read %s: %w", src, err)
	}
	return raw, nil
}
