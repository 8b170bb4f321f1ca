// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"fmt"
	"strings"

	"github.com/danielhkuo/greenery-survey/models"
)

// Lexicon selects the wording of the 0-10 scale. It has no behavioral effect.
type Lexicon string

const (
	LexiconGreen Lexicon = "GREEN"
	LexiconVeg   Lexicon = "VEG"
)

func ParseLexicon(s string) (Lexicon, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green", "g", "greenery":
		return LexiconGreen, nil
	case "veg", "vegetation", "v":
		return LexiconVeg, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLexicon, s)
}

// TapToRate is the prompt shown over an image before rating starts. Both
// lexicons use the same wording.
const TapToRate = "Click the image to start rating"

var pleasantScale = models.ScaleLabels{
	Label: "Pleasant",
	Min:   "1 = Very unpleasant",
	Mid:   "4 = Neither pleasant or unpleasant",
	Max:   "7 = Very pleasant",
	Low:   1,
	High:  7,
}

// Scales returns the labels for both fields under this lexicon.
func (l Lexicon) Scales() map[string]models.ScaleLabels {
	green := models.ScaleLabels{
		Label: "Greenery",
		Min:   "0 = Not green at all",
		Mid:   "5 = Half of the view is green",
		Max:   "10 = Completely green",
		Low:   0,
		High:  10,
	}
	if l == LexiconVeg {
		green.Label = "Vegetation"
		green.Min = "0 = No vegetation"
		green.Mid = "5 = Vegetation covers about half the view"
		green.Max = "10 = Fully covered by vegetation"
	}
	return map[string]models.ScaleLabels{
		string(FieldGreen):    green,
		string(FieldPleasant): pleasantScale,
	}
}
