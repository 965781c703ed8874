package domain

import (
	"strings"
	"time"
)

// OverrideRecord is one stored persistent override.
type OverrideRecord struct {
	ID        string    `json:"id"`
	Date      Date      `json:"date"`
	Name      string    `json:"engineer"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewOverrideRecord(id, name string, date Date, note string, now time.Time) (OverrideRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return OverrideRecord{}, ErrInvalidID
	}
	o, err := NewOverride(name, date, OriginPersistent)
	if err != nil {
		return OverrideRecord{}, err
	}
	return OverrideRecord{
		ID:        id,
		Date:      o.Date,
		Name:      o.Name,
		Note:      strings.TrimSpace(note),
		CreatedAt: now.UTC(),
	}, nil
}

// Override returns the engine view of the record.
func (r OverrideRecord) Override() Override {
	return Override{Date: r.Date, Name: r.Name, Origin: OriginPersistent}
}
