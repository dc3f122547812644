package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RatingFormat records which upstream shape a RatingSet was decoded from.
type RatingFormat int

const (
	FormatNone RatingFormat = iota
	// ArrayFormat is a bare list of ratings: [4, 5, 3].
	ArrayFormat
	// ObjectFormat is a pre-aggregated summary: {"mean": 4, "count": 3}.
	ObjectFormat
)

func (f RatingFormat) String() string {
	switch f {
	case ArrayFormat:
		return "array"
	case ObjectFormat:
		return "object"
	default:
		return "none"
	}
}

// RatingSet is the human rating attached to an evaluation record in either
// upstream format.
type RatingSet struct {
	Format RatingFormat
	Values []float64
	mean   *float64
	count  int
}

// NewRatingValues builds an ArrayFormat set.
func NewRatingValues(values ...float64) RatingSet {
	return RatingSet{Format: ArrayFormat, Values: values}
}

// NewRatingSummary builds an ObjectFormat set.
func NewRatingSummary(mean float64, count int) RatingSet {
	return RatingSet{Format: ObjectFormat, mean: &mean, count: count}
}

// Mean is the average rating on the 0-5 scale. ok is false when no rating
// was given.
func (r RatingSet) Mean() (float64, bool) {
	switch r.Format {
	case ArrayFormat:
		if len(r.Values) == 0 {
			return 0, false
		}
		var sum float64
		for _, v := range r.Values {
			sum += v
		}
		return sum / float64(len(r.Values)), true
	case ObjectFormat:
		if r.mean == nil {
			return 0, false
		}
		return *r.mean, true
	default:
		return 0, false
	}
}

// Count is the number of individual ratings behind Mean.
func (r RatingSet) Count() int {
	if r.Format == ArrayFormat {
		return len(r.Values)
	}
	return r.count
}

type ratingSummary struct {
	Mean  *float64 `json:"mean"`
	Count int      `json:"count,omitempty"`
}

func (r *RatingSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = RatingSet{}
		return nil
	}

	switch data[0] {
	case '[':
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("rating array: %w", err)
		}
		*r = RatingSet{Format: ArrayFormat, Values: values}
	case '{':
		var s ratingSummary
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("rating summary: %w", err)
		}
		*r = RatingSet{Format: ObjectFormat, mean: s.Mean, count: s.Count}
	default:
		return fmt.Errorf("ratings must be an array or an object, got %q", truncate(data, 16))
	}
	return nil
}

// MarshalJSON always writes the summary shape, or null when empty.
func (r RatingSet) MarshalJSON() ([]byte, error) {
	mean, ok := r.Mean()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(ratingSummary{Mean: &mean, Count: r.Count()})
}

// ScoreSummary is an automated score given as {"mean": x} or a bare number.
type ScoreSummary struct {
	mean *float64
}

// NewScore wraps a bare score.
func NewScore(v float64) ScoreSummary {
	return ScoreSummary{mean: &v}
}

// Mean returns the score and whether one was present.
func (s ScoreSummary) Mean() (float64, bool) {
	if s.mean == nil {
		return 0, false
	}
	return *s.mean, true
}

func (s *ScoreSummary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ScoreSummary{}
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			Mean *float64 `json:"mean"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("score summary: %w", err)
		}
		s.mean = obj.Mean
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("score must be a number or {\"mean\": n}: %w", err)
	}
	s.mean = &v
	return nil
}

func (s ScoreSummary) MarshalJSON() ([]byte, error) {
	if s.mean == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*s.mean)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
