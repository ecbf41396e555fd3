package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"gorm.io/datatypes"

	"puja-service/internal/config"
	"puja-service/internal/models"
	"puja-service/pkg/common"
)

// FactTypes is the sync order of cached almanac facts.
var FactTypes = []string{
	models.FactTithi,
	models.FactNakshatra,
	models.FactYoga,
	models.FactKarana,
	models.FactMuhurat,
	models.FactSun,
}

var factEndpoints = map[string]string{
	models.FactTithi:     "/tithi-durations",
	models.FactNakshatra: "/nakshatra-durations",
	models.FactYoga:      "/yoga-durations",
	models.FactKarana:    "/karana-durations",
	models.FactMuhurat:   "/good-bad-times",
	models.FactSun:       "/getsunriseandset",
}

// AstroFetcher returns the decoded output for one fact type and day.
type AstroFetcher interface {
	Fetch(ctx context.Context, factType string, day time.Time) (json.RawMessage, error)
}

type astroConfig struct {
	ObservationPoint string `json:"observation_point"`
	Ayanamsha        string `json:"ayanamsha"`
}

type astroRequest struct {
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	Date      int         `json:"date"`
	Hours     int         `json:"hours"`
	Minutes   int         `json:"minutes"`
	Seconds   int         `json:"seconds"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timezone  float64     `json:"timezone"`
	Config    astroConfig `json:"config"`
}

type astroEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Output     json.RawMessage `json:"output"`
}

type AstrologyClient struct {
	http      *resty.Client
	latitude  float64
	longitude float64
	timezone  float64
}

func NewAstrologyClient(cfg *config.Config) *AstrologyClient {
	client := common.NewRestyClient(cfg.AstroBaseURL, 30*time.Second, cfg.AstroRetryCount, cfg.AstroRetryWait).
		AddRetryCondition(common.RetryOnServerError).
		SetHeader("x-api-key", cfg.AstroAPIKey)
	return &AstrologyClient{
		http:      client,
		latitude:  cfg.AstroLatitude,
		longitude: cfg.AstroLongitude,
		timezone:  cfg.AstroTimezone,
	}
}

func (c *AstrologyClient) Fetch(ctx context.Context, factType string, day time.Time) (json.RawMessage, error) {
	endpoint, ok := factEndpoints[factType]
	if !ok {
		return nil, wrap(ErrValidation, fmt.Sprintf("unknown fact type %q", factType))
	}

	body := astroRequest{
		Year:      day.Year(),
		Month:     int(day.Month()),
		Date:      day.Day(),
		Hours:     6,
		Latitude:  c.latitude,
		Longitude: c.longitude,
		Timezone:  c.timezone,
		Config:    astroConfig{ObservationPoint: "topocentric", Ayanamsha: "lahiri"},
	}

	res, err := c.http.R().SetContext(ctx).SetBody(body).Post(endpoint)
	if err != nil {
		return nil, wrapUpstream("astrology "+factType, err)
	}
	if res.IsError() {
		return nil, upstreamStatus("astrology "+factType, res.StatusCode(), "")
	}

	var env astroEnvelope
	if err := json.Unmarshal(res.Body(), &env); err != nil {
		return nil, wrap(ErrMalformedPayload, "astrology response is not a JSON envelope")
	}
	return DecodeAstroOutput(env.Output)
}

// DecodeAstroOutput accepts output as a JSON object or array, or as a string
// holding one.
func DecodeAstroOutput(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, wrap(ErrMalformedPayload, "astrology output is empty")
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, wrap(ErrMalformedPayload, "astrology output string is not valid")
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 {
			return nil, wrap(ErrMalformedPayload, "astrology output is empty")
		}
	}

	if (raw[0] != '{' && raw[0] != '[') || !json.Valid(raw) {
		return nil, wrap(ErrMalformedPayload, "astrology output is not a JSON object or array")
	}
	return raw, nil
}

// NormalizeAstroOutput turns decoded output into cache rows for one day.
//
//   - an object with name or number is one row
//   - an object keyed "1", "2", ... is one row per entry in key order
//   - an object of {starts_at, ends_at} windows is one row per window
//   - an array is one row per element
//
// Any other object is kept whole as a single row named after the fact type.
func NormalizeAstroOutput(factType, date string, output json.RawMessage) ([]models.PanchangamEntry, error) {
	var decoded interface{}
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, wrap(ErrMalformedPayload, "astrology output is not valid JSON")
	}

	var items []namedItem
	switch v := decoded.(type) {
	case []interface{}:
		for _, el := range v {
			items = append(items, namedItem{value: el})
		}
	case map[string]interface{}:
		items = splitObject(v)
	default:
		return nil, wrap(ErrMalformedPayload, "astrology output is not a JSON object or array")
	}

	entries := make([]models.PanchangamEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.value.(map[string]interface{})
		if !ok {
			return nil, wrap(ErrMalformedPayload, "astrology output item is not an object")
		}
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}

		entry := models.PanchangamEntry{
			FactType: factType,
			Date:     date,
			Seq:      len(entries),
			Name:     firstString(obj, "name"),
			Number:   toInt(obj["number"]),
			Paksha:   firstString(obj, "paksha"),
			StartsAt: firstString(obj, "starts_at", "start_time", "start", "sun_rise_time"),
			EndsAt:   firstString(obj, "ends_at", "end_time", "completes_at", "end", "sun_set_time"),
			Raw:      datatypes.JSON(raw),
		}
		if entry.Name == "" {
			entry.Name = item.key
		}
		if entry.Name == "" {
			entry.Name = factType
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, wrap(ErrMalformedPayload, "astrology output has no entries")
	}
	return entries, nil
}

type namedItem struct {
	key   string
	value interface{}
}

func splitObject(obj map[string]interface{}) []namedItem {
	if _, ok := obj["name"]; ok {
		return []namedItem{{value: obj}}
	}
	if _, ok := obj["number"]; ok {
		return []namedItem{{value: obj}}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}

	if allNumeric(keys) {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
		items := make([]namedItem, 0, len(keys))
		for _, k := range keys {
			items = append(items, namedItem{value: obj[k]})
		}
		return items
	}

	if allWindows(obj) {
		sort.Strings(keys)
		items := make([]namedItem, 0, len(keys))
		for _, k := range keys {
			items = append(items, namedItem{key: k, value: obj[k]})
		}
		return items
	}

	return []namedItem{{value: obj}}
}

func allNumeric(keys []string) bool {
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err != nil {
			return false
		}
	}
	return true
}

func allWindows(obj map[string]interface{}) bool {
	for _, v := range obj {
		w, ok := v.(map[string]interface{})
		if !ok {
			return false
		}
		_, hasStart := w["starts_at"]
		_, hasEnd := w["ends_at"]
		if !hasStart && !hasEnd {
			return false
		}
	}
	return true
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(math.Round(n))
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
