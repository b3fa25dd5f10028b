package ical_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adelvaux/firecal/internal/pkg/event"
	"github.com/adelvaux/firecal/internal/pkg/ical"
)

func TestWriter_Empty(t *testing.T) {
	writer := ical.NewWriter()

	if writer.Count() != 0 {
		t.Errorf("Count() = %d, want 0", writer.Count())
	}

	serialized := writer.Serialize()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Firestore Export//Events to ICS//EN",
		"END:VCALENDAR",
	} {
		if !strings.Contains(serialized, want) {
			t.Errorf("Serialize() missing %q in:\n%s", want, serialized)
		}
	}

	if strings.Contains(serialized, "BEGIN:VEVENT") {
		t.Errorf("Serialize() contains VEVENT for empty calendar:\n%s", serialized)
	}
}

func TestWriter_TimedEvent(t *testing.T) {
	brussels, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		t.Fatal(err)
	}

	writer := ical.NewWriter()
	writer.Add(event.Event{
		Title:       "Sync",
		Start:       time.Date(2024, 1, 10, 9, 0, 0, 0, brussels),
		End:         time.Date(2024, 1, 10, 10, 0, 0, 0, brussels),
		Description: "Weekly sync",
		Location:    "Room 2",
		URL:         "https://example.com/sync",
		UID:         "abc123@firestore",
		Stamp:       time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Category:    "meeting",
	})

	if writer.Count() != 1 {
		t.Errorf("Count() = %d, want 1", writer.Count())
	}

	serialized := writer.Serialize()

	for _, want := range []string{
		"BEGIN:VEVENT",
		"SUMMARY:Sync",
		// 09:00+01:00 is 08:00Z
		"DTSTART:20240110T080000Z",
		"DTEND:20240110T090000Z",
		"DESCRIPTION:Weekly sync",
		"LOCATION:Room 2",
		"UID:abc123@firestore",
		"DTSTAMP:20240201T120000Z",
		"CATEGORIES:meeting",
		"END:VEVENT",
	} {
		if !strings.Contains(serialized, want) {
			t.Errorf("Serialize() missing %q in:\n%s", want, serialized)
		}
	}
}

func TestWriter_AllDayEvent(t *testing.T) {
	brussels, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		t.Fatal(err)
	}

	writer := ical.NewWriter()
	writer.Add(event.Event{
		Title:    "Holiday",
		Start:    time.Date(2024, 7, 1, 0, 0, 0, 0, brussels),
		End:      time.Date(2024, 7, 2, 0, 0, 0, 0, brussels),
		AllDay:   true,
		UID:      "def456@firestore",
		Stamp:    time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Category: "event",
	})

	serialized := writer.Serialize()

	for _, want := range []string{
		"DTSTART;VALUE=DATE:20240701",
		"DTEND;VALUE=DATE:20240702",
	} {
		if !strings.Contains(serialized, want) {
			t.Errorf("Serialize() missing %q in:\n%s", want, serialized)
		}
	}
}

func TestWriter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")

	writer := ical.NewWriter()
	writer.Add(event.Event{
		Title:    "Sync",
		Start:    time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		UID:      "abc123@firestore",
		Stamp:    time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Category: "meeting",
	})

	err := writer.WriteFile(path)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	content := string(data)

	if !strings.HasPrefix(content, "BEGIN:VCALENDAR") {
		t.Errorf("file does not start with BEGIN:VCALENDAR:\n%s", content)
	}

	if !strings.Contains(content, "SUMMARY:Sync") {
		t.Errorf("file missing event summary:\n%s", content)
	}
}
