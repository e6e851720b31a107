package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

var encyclopedia = map[string]string{
	"atmospheric pressure": "Atmospheric pressure, also known as barometric pressure, is the pressure within the atmosphere of Earth. " +
		"The standard atmosphere is a unit of pressure defined as 101,325 Pa, which is equivalent to 1013.25 mbar, " +
		"760 mm Hg, 29.92 inches Hg, or 14.7 psi. Atmospheric pressure decreases with increasing altitude.",
	"rainfall": "Rainfall is a type of precipitation in which water drops from atmospheric water vapor condense and fall under gravity. " +
		"Rainfall is measured using rain gauges, and global precipitation amounts to approximately 505,000 km³ of water per year.",
	"climate": "Climate is the long-term average of weather patterns in a specific region. Factors affecting climate include latitude, " +
		"altitude, terrain, nearby water bodies, and ocean currents. Climate change refers to significant changes in global temperature, " +
		"precipitation, wind patterns, and other measures of climate that occur over several decades or longer.",
}

// Wiki looks topics up in a small built-in encyclopedia.
type Wiki struct{}

func (Wiki) Name() string { return "wiki" }

func (Wiki) Description() string {
	return "Look up background information on a topic. Input should be the topic name."
}

func (w Wiki) Call(_ context.Context, input string) (string, error) {
	return w.Lookup(input), nil
}

// Lookup tries an exact match, then a partial match in either direction.
func (Wiki) Lookup(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	if text, ok := encyclopedia[t]; ok {
		return text
	}

	keys := make([]string, 0, len(encyclopedia))
	for k := range encyclopedia {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t != "" && (strings.Contains(t, k) || strings.Contains(k, t)) {
			return encyclopedia[k]
		}
	}
	return fmt.Sprintf("No information found about '%s'", strings.TrimSpace(topic))
}
