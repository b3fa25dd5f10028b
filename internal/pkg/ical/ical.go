package ical

import (
	"fmt"
	"os"

	ics "github.com/arran4/golang-ical"

	"github.com/adelvaux/firecal/internal/pkg/event"
)

const (
	prodID  = "-//Firestore Export//Events to ICS//EN"
	version = "2.0"
)

// Writer accumulates normalized events into a single calendar document and
// serializes it exactly once.
type Writer struct {
	cal   *ics.Calendar
	count int
}

func NewWriter() *Writer {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetVersion(version)

	return &Writer{cal: cal}
}

// Add appends one VEVENT. All-day events carry date-only DTSTART/DTEND with
// the exclusive end convention left to the source data; timed events carry
// full instants.
func (w *Writer) Add(ev event.Event) {
	ve := w.cal.AddEvent(ev.UID)

	ve.SetSummary(ev.Title)

	if ev.AllDay {
		ve.SetAllDayStartAt(ev.Start)
		ve.SetAllDayEndAt(ev.End)
	} else {
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
	}

	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.URL != "" {
		ve.SetURL(ev.URL)
	}

	ve.SetDtStampTime(ev.Stamp)
	ve.SetProperty(ics.ComponentPropertyCategories, ev.Category)

	w.count++
}

// Count reports how many events were included in the calendar.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Serialize() string {
	return w.cal.Serialize()
}

// WriteFile renders the calendar to path in one pass: create, write, close.
func (w *Writer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %w", path, err)
	}

	err = w.cal.SerializeTo(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("error writing calendar to %s: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("error closing output file %s: %w", path, err)
	}

	return nil
}
