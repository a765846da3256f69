// Package models holds the typed record shapes for each collection and their
// schemas. Records travel through the gateway as normalized store.Rows and are
// converted to and from these structs at the repository boundary.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

const (
	CollectionUsers         = "users"
	CollectionPatients      = "patients"
	CollectionBeds          = "beds"
	CollectionNotifications = "notifications"
)

// Schemas returns the schema of every collection.
func Schemas() []*store.Schema {
	return []*store.Schema{UserSchema, PatientSchema, BedSchema, NotificationSchema}
}

// SchemaFor looks up a collection schema by name.
func SchemaFor(collection string) (*store.Schema, bool) {
	for _, s := range Schemas() {
		if s.Collection == collection {
			return s, true
		}
	}
	return nil, false
}

// ToRow converts a typed record into a normalized row for schema s.
func ToRow(s *store.Schema, v any) (store.Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", s.Collection, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw store.Row
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", s.Collection, err)
	}
	return s.Normalize(raw)
}

// FromRow fills dst (a pointer to a record struct) from a normalized row.
func FromRow(r store.Row, dst any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
