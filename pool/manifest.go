// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pool

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyManifest = errors.New("manifest lists no images")

// Manifest is the YAML list of images a survey draws from:
//
//	base_url: https://cdn.example.org/street/
//	sample: 150
//	images:
//	  - sg_0001.jpg
//	  - sg_0002.jpg
type Manifest struct {
	BaseURL string   `yaml:"base_url"`
	Sample  int      `yaml:"sample"`
	Images  []string `yaml:"images"`
}

func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	images := m.Images[:0]
	for _, img := range m.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	m.Images = images

	if len(m.Images) == 0 {
		return Manifest{}, ErrEmptyManifest
	}
	if m.Sample < 0 {
		return Manifest{}, fmt.Errorf("sample must not be negative: %d", m.Sample)
	}
	return m, nil
}

// Refs returns the image references with the base URL applied. Absolute
// entries are left alone.
func (m Manifest) Refs() []string {
	out := make([]string, 0, len(m.Images))
	for _, img := range m.Images {
		if m.BaseURL == "" || strings.Contains(img, "://") {
			out = append(out, img)
			continue
		}
		out = append(out, strings.TrimRight(m.BaseURL, "/")+"/"+strings.TrimLeft(img, "/"))
	}
	return out
}

// SampleSize is how many images one session may draw; 0 means all of them.
func (m Manifest) SampleSize() int {
	if m.Sample == 0 || m.Sample > len(m.Images) {
		return len(m.Images)
	}
	return m.Sample
}
