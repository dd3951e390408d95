package domain_test

import (
	"testing"
	"time"

	"tasksmith/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDocument(t *testing.T) {
	task := fullTask(t)

	doc := task.ToDocument()

	assert.Equal(t, task.ID(), doc[domain.FieldID])
	assert.Equal(t, "Write Report", doc[domain.FieldTitle])
	assert.Equal(t, "IN_PROGRESS", doc[domain.FieldStatus])
	assert.Equal(t, "HIGH", doc[domain.FieldPriority])
	assert.Equal(t, "2025-12-31T17:00:00.000000+00:00", doc[domain.FieldDueDate])
	assert.Equal(t, 120, doc[domain.FieldEstimatedTime])
	assert.Equal(t, domain.FormatTimestamp(task.CreatedAt()), doc[domain.FieldCreatedAt])
	assert.Equal(t, *task.ParentID, doc[domain.FieldParentID])
}

func TestToDocument_OptionalFieldsAreNull(t *testing.T) {
	task, err := domain.NewTask(domain.CreateTaskInput{Title: "x"})
	require.NoError(t, err)

	doc := task.ToDocument()

	assert.Contains(t, doc, domain.FieldParentID)
	assert.Nil(t, doc[domain.FieldParentID])
	assert.Contains(t, doc, domain.FieldDueDate)
	assert.Nil(t, doc[domain.FieldDueDate])
}

func TestDocumentRoundTrip(t *testing.T) {
	original := fullTask(t).MarkUpdated()

	restored, err := domain.FromDocument(original.ToDocument())
	require.NoError(t, err)

	assert.Equal(t, original, restored)
	assert.Equal(t, original.ID(), restored.ID())
	assert.True(t, original.CreatedAt().Equal(restored.CreatedAt()))
	assert.True(t, original.UpdatedAt().Equal(restored.UpdatedAt()))
}

func TestDocumentRoundTrip_Minimal(t *testing.T) {
	original, err := domain.NewTask(domain.CreateTaskInput{Title: "x"})
	require.NoError(t, err)

	restored, err := domain.FromDocument(original.ToDocument())
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestFromDocument_ToleratesStoreShapes(t *testing.T) {
	doc := domain.Document{
		domain.FieldID:            "0b5d1f08-5a9e-4f36-a7a5-0e5d0d0d0d0d",
		domain.FieldTitle:         "Stored",
		domain.FieldStatus:        "COMPLETED",
		domain.FieldPriority:      "TOP",
		domain.FieldDueDate:       "2026-01-01T00:00:00Z",
		domain.FieldEstimatedTime: int32(45),
		domain.FieldCreatedAt:     "2025-10-31T10:00:00+00:00",
		domain.FieldUpdatedAt:     "2025-10-31T10:00:00.123456+00:00",
		"legacyField":             true,
	}

	task, err := domain.FromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, "0b5d1f08-5a9e-4f36-a7a5-0e5d0d0d0d0d", task.ID())
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assert.Equal(t, domain.PriorityTop, task.Priority)
	assert.Equal(t, 45, task.EstimatedTime)
	assert.Equal(t, "", task.Body)
	assert.Nil(t, task.ParentID)
	assert.Equal(t, time.Date(2025, 10, 31, 10, 0, 0, 0, time.UTC), task.CreatedAt())
	assert.Equal(t, time.Date(2025, 10, 31, 10, 0, 0, 123456000, time.UTC), task.UpdatedAt())
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *task.DueDate)
}

func TestFromDocument_MissingAuditFieldsGetFreshValues(t *testing.T) {
	task, err := domain.FromDocument(domain.Document{domain.FieldTitle: "fresh"})
	require.NoError(t, err)

	assert.Len(t, task.ID(), 36)
	assert.Equal(t, task.CreatedAt(), task.UpdatedAt())
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestFromDocument_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  domain.Document
	}{
		{name: "nil document", doc: nil},
		{name: "missing title", doc: domain.Document{domain.FieldBody: "b"}},
		{name: "title not a string", doc: domain.Document{domain.FieldTitle: 3}},
		{name: "empty title", doc: domain.Document{domain.FieldTitle: ""}},
		{name: "unknown status", doc: domain.Document{domain.FieldTitle: "x", domain.FieldStatus: "DONE"}},
		{name: "status ordinal", doc: domain.Document{domain.FieldTitle: "x", domain.FieldStatus: 1}},
		{name: "unknown priority", doc: domain.Document{domain.FieldTitle: "x", domain.FieldPriority: "URGENT"}},
		{name: "bad due date", doc: domain.Document{domain.FieldTitle: "x", domain.FieldDueDate: "tomorrow"}},
		{name: "fractional estimate", doc: domain.Document{domain.FieldTitle: "x", domain.FieldEstimatedTime: 1.5}},
		{name: "negative estimate", doc: domain.Document{domain.FieldTitle: "x", domain.FieldEstimatedTime: -5}},
		{name: "estimate overflows int", doc: domain.Document{domain.FieldTitle: "x", domain.FieldEstimatedTime: 1e19}},
		{name: "estimate at 2^63", doc: domain.Document{domain.FieldTitle: "x", domain.FieldEstimatedTime: float64(1 << 63)}},
		{name: "updated before created", doc: domain.Document{
			domain.FieldTitle:     "x",
			domain.FieldCreatedAt: "2025-10-31T10:00:00+00:00",
			domain.FieldUpdatedAt: "2025-10-30T10:00:00+00:00",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.FromDocument(tt.doc)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindDeserialization))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 11, 11, 8, 30, 0, 0, time.UTC)

	for _, value := range []string{
		"2025-11-11T08:30:00Z",
		"2025-11-11T08:30:00+00:00",
		"2025-11-11T08:30:00.000000+00:00",
		"2025-11-11T09:30:00+01:00",
		"2025-11-11T08:30:00",
	} {
		got, err := domain.ParseTimestamp(value)
		require.NoError(t, err, value)
		assert.True(t, want.Equal(got), value)
		assert.Equal(t, time.UTC, got.Location(), value)
	}
}

func TestEncodeTimes(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var nilTime *time.Time

	out := domain.EncodeTimes(domain.Document{
		domain.FieldDueDate:   ts,
		domain.FieldUpdatedAt: &ts,
		domain.FieldParentID:  nilTime,
		domain.FieldTitle:     "t",
	})

	assert.Equal(t, "2026-01-01T00:00:00.000000+00:00", out[domain.FieldDueDate])
	assert.Equal(t, "2026-01-01T00:00:00.000000+00:00", out[domain.FieldUpdatedAt])
	assert.Nil(t, out[domain.FieldParentID])
	assert.Equal(t, "t", out[domain.FieldTitle])
}
