package event

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	untitled        = "Untitled"
	uidDomain       = "firestore"
	defaultCategory = "event"

	// Records with no end time get this span added to start.
	defaultDuration = time.Hour
)

// Event is the normalized form of one raw record, ready for serialization.
// End is never zero; Start and End are wall-clock dates when AllDay is set.
type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Description string
	Location    string
	URL         string
	UID         string
	Stamp       time.Time
	Category    string
}

// UnsupportedTypeError reports a date field whose dynamic type has no known
// conversion. It aborts the whole export.
type UnsupportedTypeError struct {
	Value interface{}
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported date type %T (%v)", e.Value, e.Value)
}

type Normalizer struct {
	Log      *logrus.Entry
	Location *time.Location
	Now      func() time.Time
}

func NewNormalizer(log *logrus.Entry, loc *time.Location) *Normalizer {
	return &Normalizer{
		Log:      log,
		Location: loc,
		Now:      time.Now,
	}
}

// Normalize maps one raw record to an Event. The second return is false when
// the record has no start time; such records are dropped, not failed.
func (norm *Normalizer) Normalize(data map[string]interface{}) (Event, bool, error) {
	start, err := ToTime(data["start"], norm.Location)
	if err != nil {
		return Event{}, false, err
	}

	if start.IsZero() {
		if norm.Log != nil {
			norm.Log.WithField("title", resolveTitle(data)).Debug("skipping record without start")
		}

		return Event{}, false, nil
	}

	end, err := ToTime(data["end"], norm.Location)
	if err != nil {
		return Event{}, false, err
	}

	if end.IsZero() {
		end = start.Add(defaultDuration)
	}

	return Event{
		Title:       resolveTitle(data),
		Start:       start,
		End:         end,
		AllDay:      boolField(data, "all_day"),
		Description: stringField(data, "description"),
		Location:    stringField(data, "location"),
		URL:         stringField(data, "url"),
		UID:         fmt.Sprintf("%s@%s", uuid.New(), uidDomain),
		Stamp:       norm.Now().In(norm.Location),
		Category:    category(data),
	}, true, nil
}

// isoLayouts are tried in order for string dates, most specific first. The
// zoneless layouts rely on ParseInLocation assigning the target timezone.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToTime converts a raw date value into an instant in loc. Accepted shapes are
// a native timestamp (Firestore decodes its Timestamp type to time.Time), an
// epoch number in seconds, or an ISO-8601 string. A value without timezone
// information is taken as local time in loc, not converted from UTC. A nil
// value yields the zero time with no error.
func ToTime(value interface{}, loc *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.In(loc), nil
	case int:
		return time.Unix(int64(v), 0).In(loc), nil
	case int64:
		return time.Unix(v, 0).In(loc), nil
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))).In(loc), nil
	case string:
		for _, layout := range isoLayouts {
			t, err := time.ParseInLocation(layout, v, loc)
			if err == nil {
				return t.In(loc), nil
			}
		}

		return time.Time{}, &UnsupportedTypeError{Value: v}
	default:
		return time.Time{}, &UnsupportedTypeError{Value: value}
	}
}

func resolveTitle(data map[string]interface{}) string {
	if title := stringField(data, "title"); title != "" {
		return title
	}

	if name := stringField(data, "name"); name != "" {
		return name
	}

	return untitled
}

func category(data map[string]interface{}) string {
	if typ := stringField(data, "type"); typ != "" {
		return typ
	}

	return defaultCategory
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func boolField(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}
