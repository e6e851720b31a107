package tool

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

type climate struct {
	lo, hi     int
	conditions []string
}

var climates = map[string]climate{
	"new york": {40, 85, []string{"Sunny", "Cloudy", "Rainy", "Snowy"}},
	"london":   {40, 75, []string{"Cloudy", "Rainy", "Foggy", "Partly Cloudy"}},
	"tokyo":    {50, 90, []string{"Sunny", "Cloudy", "Rainy"}},
	"sydney":   {60, 95, []string{"Sunny", "Partly Cloudy", "Clear"}},
	"paris":    {45, 80, []string{"Sunny", "Cloudy", "Rainy"}},
}

var defaultClimate = climate{50, 80, []string{"Partly Cloudy"}}

var forecastConditions = []string{"Sunny", "Partly Cloudy", "Cloudy", "Rainy", "Thunderstorms"}

// Weather returns mock current conditions for a city.
type Weather struct {
	Rand *Rand
	Now  Clock
}

// NewWeather uses a time-seeded random source.
func NewWeather() *Weather {
	return &Weather{Rand: defaultRand()}
}

func (w *Weather) Name() string { return "get_weather" }

func (w *Weather) Description() string {
	return "Useful for getting current weather conditions for a location. Input should be a city name or location."
}

func (w *Weather) Call(_ context.Context, input string) (string, error) {
	location := cleanLocation(input)
	c, ok := climates[strings.ToLower(location)]
	if !ok {
		c = defaultClimate
	}
	r := w.rand()
	t := now(w.Now)

	return fmt.Sprintf("Weather for %s on %s at %s:\nTemperature: %d°F\nCondition: %s\nHumidity: %d%%\nWind Speed: %d mph",
		titleCase(location),
		t.Format(time.DateOnly),
		t.Format("15:04"),
		r.Between(c.lo, c.hi),
		r.Pick(c.conditions),
		r.Between(30, 90),
		r.Between(0, 20),
	), nil
}

func (w *Weather) rand() *Rand {
	if w.Rand == nil {
		w.Rand = defaultRand()
	}
	return w.Rand
}

// Forecast returns a mock five-day forecast.
type Forecast struct {
	Rand *Rand
	Now  Clock
}

// NewForecast uses a time-seeded random source.
func NewForecast() *Forecast {
	return &Forecast{Rand: defaultRand()}
}

func (f *Forecast) Name() string { return "get_forecast" }

func (f *Forecast) Description() string {
	return "Useful for getting a 5-day weather forecast for a location. Input should be a city name or location."
}

func (f *Forecast) Call(_ context.Context, input string) (string, error) {
	if f.Rand == nil {
		f.Rand = defaultRand()
	}
	start := now(f.Now)

	var sb strings.Builder
	fmt.Fprintf(&sb, "5-Day Forecast for %s:\n\n", titleCase(cleanLocation(input)))
	for i := range 5 {
		high := f.Rand.Between(60, 95)
		low := f.Rand.Between(40, high-5)
		fmt.Fprintf(&sb, "%s: High %d°F, Low %d°F, %s\n",
			start.AddDate(0, 0, i).Format(time.DateOnly), high, low, f.Rand.Pick(forecastConditions))
	}
	return sb.String(), nil
}

func cleanLocation(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'.?`)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
