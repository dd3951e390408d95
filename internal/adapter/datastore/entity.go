package datastore

import (
	"sort"
	"time"

	"cloud.google.com/go/datastore"

	"tasksmith/internal/core/domain"
)

var timeFields = map[string]bool{
	domain.FieldDueDate:   true,
	domain.FieldCreatedAt: true,
	domain.FieldUpdatedAt: true,
}

// Free text is never queried on.
var unindexedFields = map[string]bool{
	domain.FieldBody: true,
}

// entityFromDocument stores timestamps as native times so the createdAt
// ordering is chronological. The id lives in the key, not in a property.
func entityFromDocument(doc domain.Document) datastore.PropertyList {
	names := make([]string, 0, len(doc))
	for name := range doc {
		if name == domain.FieldID {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entity := make(datastore.PropertyList, 0, len(names))
	for _, name := range names {
		entity = append(entity, property(name, doc[name]))
	}
	return entity
}

func documentFromEntity(id string, entity datastore.PropertyList) domain.Document {
	doc := domain.Document{domain.FieldID: id}
	for _, p := range entity {
		doc[p.Name] = p.Value
	}
	return doc
}

// mergeEntity overlays prepared update fields and reports whether any stored
// value actually changed.
func mergeEntity(entity datastore.PropertyList, prepared domain.Document) (datastore.PropertyList, bool) {
	current := make(map[string]datastore.Property, len(entity))
	for _, p := range entity {
		current[p.Name] = p
	}

	changed := false
	for name, value := range prepared {
		next := property(name, value)
		if existing, ok := current[name]; ok && sameValue(existing.Value, next.Value) {
			continue
		}
		current[name] = next
		changed = true
	}
	if !changed {
		return entity, false
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := make(datastore.PropertyList, 0, len(names))
	for _, name := range names {
		merged = append(merged, current[name])
	}
	return merged, true
}

func property(name string, value any) datastore.Property {
	switch v := value.(type) {
	case string:
		if timeFields[name] {
			if t, err := domain.ParseTimestamp(v); err == nil {
				value = t
			}
		}
	case int:
		value = int64(v)
	case time.Time:
		value = v.UTC().Truncate(time.Microsecond)
	}
	return datastore.Property{Name: name, Value: value, NoIndex: unindexedFields[name]}
}

func sameValue(a, b any) bool {
	ta, aIsTime := a.(time.Time)
	tb, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		return aIsTime && bIsTime && ta.Equal(tb)
	}
	return a == b
}

// rewindsUpdatedAt reports whether prepared would move updatedAt before the
// stored createdAt.
func rewindsUpdatedAt(entity datastore.PropertyList, prepared domain.Document) bool {
	updatedAt, ok := domain.UpdatedAtOf(prepared)
	if !ok {
		return false
	}
	for _, p := range entity {
		if p.Name != domain.FieldCreatedAt {
			continue
		}
		switch v := p.Value.(type) {
		case time.Time:
			return updatedAt.Before(v)
		case string:
			createdAt, err := domain.ParseTimestamp(v)
			return err == nil && updatedAt.Before(createdAt)
		}
	}
	return false
}
