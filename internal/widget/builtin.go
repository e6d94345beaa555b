package widget

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vibetab/internal/model"
)

const (
	KindClock     = "clock"
	KindSearch    = "search"
	KindWeather   = "weather"
	KindBookmarks = "bookmarks"
	KindTodo      = "todo"
	KindCalendar  = "calendar"
	KindControls  = "controls"
)

// Builtins returns the kinds every registry starts with.
func Builtins() []Kind {
	return []Kind{
		clockKind{},
		searchKind{},
		weatherKind{},
		bookmarksKind{},
		todoKind{},
		calendarKind{},
		controlsKind{},
	}
}

// DefaultConfig returns the reset configuration for a built-in kind, or an empty object.
func DefaultConfig(kind string) json.RawMessage {
	for _, k := range Builtins() {
		if k.Name() == kind {
			return k.DefaultConfig()
		}
	}
	return json.RawMessage(`{}`)
}

// decodeOver unmarshals raw on top of dst, which already holds the defaults.
func decodeOver(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("config must be a JSON object: %w", err)
	}
	return nil
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func oneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s (got %q)", field, strings.Join(allowed, ", "), v)
}

// Clock.

type ClockConfig struct {
	Style       string `json:"style"`
	Format      string `json:"format"`
	DateFormat  string `json:"dateFormat"`
	ShowSeconds bool   `json:"showSeconds"`
	Color       string `json:"color,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Transparent bool   `json:"transparent,omitempty"`
}

func DefaultClockConfig() ClockConfig {
	return ClockConfig{Style: "digital", Format: "24h", DateFormat: "Mon Jan 01"}
}

var clockDateLayouts = map[string]string{
	"MM/DD/YYYY": "01/02/2006",
	"DD/MM/YYYY": "02/01/2006",
	"Mon Jan 01": "Mon Jan 02",
	"YYYY-MM-DD": "2006-01-02",
	"none":       "",
}

type clockKind struct{}

func (clockKind) Name() string { return KindClock }

func (clockKind) DefaultSize() model.Size { return model.Size{W: 12, H: 12} }

func (clockKind) MinSize() model.Size { return model.Size{W: 2, H: 1} }

func (clockKind) Presets() []Preset {
	return []Preset{
		{Name: "small", Size: model.Size{W: 8, H: 8}},
		{Name: "medium", Size: model.Size{W: 12, H: 12}, Default: true},
		{Name: "large", Size: model.Size{W: 16, H: 16}},
	}
}

func (clockKind) DefaultConfig() json.RawMessage { return mustJSON(DefaultClockConfig()) }

func (clockKind) decode(raw json.RawMessage) (ClockConfig, error) {
	c := DefaultClockConfig()
	err := decodeOver(raw, &c)
	return c, err
}

func (k clockKind) ValidateConfig(raw json.RawMessage) error {
	c, err := k.decode(raw)
	if err != nil {
		return err
	}
	if err := oneOf("style", c.Style, "digital", "analog"); err != nil {
		return err
	}
	if err := oneOf("format", c.Format, "12h", "24h"); err != nil {
		return err
	}
	if _, ok := clockDateLayouts[c.DateFormat]; !ok {
		return fmt.Errorf("dateFormat %q is not supported", c.DateFormat)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

func (k clockKind) Summary(it model.Item, now time.Time) string {
	c, err := k.decode(it.Config)
	if err != nil {
		return "clock"
	}
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	layout := "15:04"
	if c.Format == "12h" {
		layout = "3:04"
	}
	if c.ShowSeconds {
		layout += ":05"
	}
	if c.Format == "12h" {
		layout += " PM"
	}
	out := now.Format(layout)
	if dl := clockDateLayouts[c.DateFormat]; dl != "" {
		out += "  " + now.Format(dl)
	}
	return out
}

// Search.

type SearchConfig struct {
	Provider    string `json:"provider"`
	AIMode      bool   `json:"aiMode"`
	Transparent bool   `json:"transparent,omitempty"`
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{Provider: "google"}
}

type searchKind struct{}

func (searchKind) Name() string { return KindSearch }

func (searchKind) DefaultSize() model.Size { return model.Size{W: 24, H: 3} }

func (searchKind) MinSize() model.Size { return model.Size{W: 4, H: 1} }

func (searchKind) Presets() []Preset {
	return []Preset{
		{Name: "compact", Size: model.Size{W: 16, H: 3}},
		{Name: "standard", Size: model.Size{W: 24, H: 3}, Default: true},
		{Name: "wide", Size: model.Size{W: 32, H: 3}},
	}
}

func (searchKind) DefaultConfig() json.RawMessage { return mustJSON(DefaultSearchConfig()) }

func (searchKind) ValidateConfig(raw json.RawMessage) error {
	c := DefaultSearchConfig()
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	return oneOf("provider", c.Provider, "google", "bing", "duckduckgo")
}

func (searchKind) Summary(it model.Item, _ time.Time) string {
	c := DefaultSearchConfig()
	_ = decodeOver(it.Config, &c)
	if c.AIMode {
		return "search: " + c.Provider + " (ai)"
	}
	return "search: " + c.Provider
}

// Weather.

type WeatherConfig struct {
	Unit        string   `json:"unit"`
	Location    string   `json:"location,omitempty"`
	City        string   `json:"city,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Transparent bool     `json:"transparent,omitempty"`
}

func DefaultWeatherConfig() WeatherConfig {
	return WeatherConfig{Unit: "c"}
}

type weatherKind struct{}

func (weatherKind) Name() string { return KindWeather }

func (weatherKind) DefaultSize() model.Size { return model.Size{W: 8, H: 6} }

func (weatherKind) MinSize() model.Size { return model.Size{W: 4, H: 2} }

func (weatherKind) Presets() []Preset { return nil }

func (weatherKind) DefaultConfig() json.RawMessage { return mustJSON(DefaultWeatherConfig()) }

func (weatherKind) ValidateConfig(raw json.RawMessage) error {
	c := DefaultWeatherConfig()
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	if err := oneOf("unit", c.Unit, "c", "f"); err != nil {
		return err
	}
	if c.Lat != nil && (*c.Lat < -90 || *c.Lat > 90) {
		return fmt.Errorf("lat %v out of range", *c.Lat)
	}
	if c.Lon != nil && (*c.Lon < -180 || *c.Lon > 180) {
		return fmt.Errorf("lon %v out of range", *c.Lon)
	}
	return nil
}

func (weatherKind) Summary(it model.Item, _ time.Time) string {
	c := DefaultWeatherConfig()
	_ = decodeOver(it.Config, &c)
	place := c.City
	if place == "" {
		place = c.Location
	}
	if place == "" {
		place = "current location"
	}
	return fmt.Sprintf("weather: %s (°%s)", place, strings.ToUpper(c.Unit))
}

// Bookmarks.

type Bookmark struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type BookmarksConfig struct {
	Links []Bookmark `json:"links"`
}

type bookmarksKind struct{}

func (bookmarksKind) Name() string { return KindBookmarks }

func (bookmarksKind) DefaultSize() model.Size { return model.Size{W: 12, H: 6} }

func (bookmarksKind) MinSize() model.Size { return model.Size{W: 4, H: 2} }

func (bookmarksKind) Presets() []Preset { return nil }

func (bookmarksKind) DefaultConfig() json.RawMessage {
	return mustJSON(BookmarksConfig{Links: []Bookmark{}})
}

func (bookmarksKind) ValidateConfig(raw json.RawMessage) error {
	var c BookmarksConfig
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	for i, l := range c.Links {
		u, err := url.Parse(l.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("links[%d]: %q is not an absolute URL", i, l.URL)
		}
	}
	return nil
}

func (bookmarksKind) Summary(it model.Item, _ time.Time) string {
	var c BookmarksConfig
	_ = decodeOver(it.Config, &c)
	if len(c.Links) == 1 {
		return "1 bookmark"
	}
	return fmt.Sprintf("%d bookmarks", len(c.Links))
}

// Todo.

type TodoEntry struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type TodoConfig struct {
	Items []TodoEntry `json:"items"`
}

type todoKind struct{}

func (todoKind) Name() string { return KindTodo }

func (todoKind) DefaultSize() model.Size { return model.Size{W: 10, H: 10} }

func (todoKind) MinSize() model.Size { return model.Size{W: 4, H: 3} }

func (todoKind) Presets() []Preset { return nil }

func (todoKind) DefaultConfig() json.RawMessage { return mustJSON(TodoConfig{Items: []TodoEntry{}}) }

func (todoKind) ValidateConfig(raw json.RawMessage) error {
	var c TodoConfig
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	for i, e := range c.Items {
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("items[%d]: empty text", i)
		}
	}
	return nil
}

func (todoKind) Summary(it model.Item, _ time.Time) string {
	var c TodoConfig
	_ = decodeOver(it.Config, &c)
	done := 0
	for _, e := range c.Items {
		if e.Done {
			done++
		}
	}
	return fmt.Sprintf("todo: %d/%d done", done, len(c.Items))
}

// Calendar.

type CalendarConfig struct {
	WeekStart string `json:"weekStart"`
}

type calendarKind struct{}

func (calendarKind) Name() string { return KindCalendar }

func (calendarKind) DefaultSize() model.Size { return model.Size{W: 12, H: 10} }

func (calendarKind) MinSize() model.Size { return model.Size{W: 8, H: 6} }

func (calendarKind) Presets() []Preset { return nil }

func (calendarKind) DefaultConfig() json.RawMessage {
	return mustJSON(CalendarConfig{WeekStart: "monday"})
}

func (calendarKind) ValidateConfig(raw json.RawMessage) error {
	c := CalendarConfig{WeekStart: "monday"}
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	return oneOf("weekStart", c.WeekStart, "monday", "sunday")
}

func (calendarKind) Summary(_ model.Item, now time.Time) string {
	return now.Format("January 2006")
}

// Controls drives the pomodoro timer layout.

type ControlsConfig struct {
	WorkMinutes  int `json:"workMinutes"`
	BreakMinutes int `json:"breakMinutes"`
}

func DefaultControlsConfig() ControlsConfig {
	return ControlsConfig{WorkMinutes: 25, BreakMinutes: 5}
}

type controlsKind struct{}

func (controlsKind) Name() string { return KindControls }

func (controlsKind) DefaultSize() model.Size { return model.Size{W: 16, H: 6} }

func (controlsKind) MinSize() model.Size { return model.Size{W: 12, H: 4} }

func (controlsKind) Presets() []Preset { return nil }

func (controlsKind) DefaultConfig() json.RawMessage { return mustJSON(DefaultControlsConfig()) }

func (controlsKind) ValidateConfig(raw json.RawMessage) error {
	c := DefaultControlsConfig()
	if err := decodeOver(raw, &c); err != nil {
		return err
	}
	if c.WorkMinutes < 1 || c.BreakMinutes < 1 {
		return fmt.Errorf("workMinutes and breakMinutes must be positive")
	}
	return nil
}

func (controlsKind) Summary(it model.Item, _ time.Time) string {
	c := DefaultControlsConfig()
	_ = decodeOver(it.Config, &c)
	return fmt.Sprintf("pomodoro: %dm work / %dm break", c.WorkMinutes, c.BreakMinutes)
}
