// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/danielhkuo/greenery-survey/models"
)

// imageRatings collects the raw ratings given to one image
type imageRatings struct {
	green    []float64
	pleasant []float64
	dwell    []float64
}

// ComputeImageSummaries aggregates the stored ratings per image, ordered by
// median greenness (highest first), then by image ref
func ComputeImageSummaries(db *sql.DB) ([]models.ImageSummary, error) {
	byImage, err := getImageRatings(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get image ratings: %w", err)
	}

	summaries := make([]models.ImageSummary, 0, len(byImage))
	for ref, r := range byImage {
		summaries = append(summaries, models.ImageSummary{
			ImageRef:    ref,
			Responses:   len(r.green),
			Green:       summarize(r.green),
			Pleasant:    summarize(r.pleasant),
			MeanDwellMs: mean(r.dwell),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Green.Median != b.Green.Median {
			return a.Green.Median > b.Green.Median
		}
		return a.ImageRef < b.ImageRef
	})

	return summaries, nil
}

// getImageRatings retrieves every completed unit grouped by image
func getImageRatings(db *sql.DB) (map[string]*imageRatings, error) {
	rows, err := db.Query(`
		SELECT image_ref, green, pleasant, dwell_ms
		FROM unit_rating
		ORDER BY image_ref
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*imageRatings)
	for rows.Next() {
		var ref string
		var green, pleasant int
		var dwell int64
		if err := rows.Scan(&ref, &green, &pleasant, &dwell); err != nil {
			return nil, err
		}
		r, ok := out[ref]
		if !ok {
			r = &imageRatings{}
			out[ref] = r
		}
		r.green = append(r.green, float64(green))
		r.pleasant = append(r.pleasant, float64(pleasant))
		r.dwell = append(r.dwell, float64(dwell))
	}

	return out, rows.Err()
}

func countSessions(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM survey_response`).Scan(&n)
	return n, err
}

func summarize(values []float64) models.RatingStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.RatingStats{
		Median: percentile(sorted, 0.5),
		P10:    percentile(sorted, 0.1),
		P90:    percentile(sorted, 0.9),
		Mean:   mean(sorted),
	}
}

// percentile calculates the p-th percentile of sorted data
// p should be in range [0, 1]
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Linear interpolation between closest ranks
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
