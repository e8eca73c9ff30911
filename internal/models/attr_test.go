package models

import (
	"errors"
	"testing"

	"github.com/sasset/core/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedAsset() *Asset {
	a := &Asset{Record: Record{ID: "a1"}, Attributes: []Attribute{
		{FieldID: "f1", Value: "web01"},
		{FieldID: "f2", Value: []any{"prod"}},
	}}
	a.Populate(primaryPartition())
	return a
}

func TestAttr_NotLoaded(t *testing.T) {
	_, err := (&Asset{}).Attr("Hostname")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPrecondition))

	a := &Asset{Attributes: []Attribute{{FieldID: "f1", Value: "x"}}}
	_, err = a.Attr("Hostname")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not populated")
}

func TestAttr_Lookup(t *testing.T) {
	a := populatedAsset()

	h, err := a.Attr("hostname")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "web01", h.Value())
	assert.Equal(t, "f1", h.Full().FieldID)
	assert.Equal(t, 1, h.Duplicates())

	h, err = a.Attr("f2")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []any{"prod"}, h.Value())

	h, err = a.Attr("missing")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestAttr_Set(t *testing.T) {
	a := populatedAsset()
	h, err := a.Attr("Hostname")
	require.NoError(t, err)

	h.Set("web02")
	assert.Equal(t, "web02", a.Attributes[0].Value)
	assert.Contains(t, a.Modified(), "attributes")
}

func TestAttr_Delete(t *testing.T) {
	a := populatedAsset()
	h, err := a.Attr("Tags")
	require.NoError(t, err)

	removed, ok := h.Delete()
	require.True(t, ok)
	assert.Equal(t, "f2", removed.FieldID)
	assert.Len(t, a.Attributes, 1)
	assert.Contains(t, a.Modified(), "attributes")

	_, ok = h.Delete()
	assert.False(t, ok, "second delete has nothing to remove")
	assert.Nil(t, h.Value())
}

func TestAttr_Duplicates(t *testing.T) {
	a := populatedAsset()
	a.Attributes = append(a.Attributes, Attribute{FieldID: "f1", Value: "web99"})
	a.Populate(a.Partition)

	h, err := a.Attr("Hostname")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Duplicates())
	assert.Equal(t, "web01", h.Value(), "first match wins")

	h.Delete()
	assert.Len(t, a.Attributes, 1, "all duplicates removed")

	a.ClearModified()
	assert.Empty(t, a.Modified())
}

func TestAttr_HandleSurvivesOtherDelete(t *testing.T) {
	a := populatedAsset()
	tags, err := a.Attr("Tags")
	require.NoError(t, err)
	hostname, err := a.Attr("Hostname")
	require.NoError(t, err)

	_, ok := hostname.Delete()
	require.True(t, ok)

	assert.Equal(t, []any{"prod"}, tags.Value())
	assert.Equal(t, "f2", tags.Full().FieldID)
	require.True(t, tags.Set([]any{"staging"}))
	require.Len(t, a.Attributes, 1)
	assert.Equal(t, Attribute{FieldID: "f2", Field: a.Partition.Fields[1], Value: []any{"staging"}}, a.Attributes[0])

	// the deleted attribute stays gone for its own handle
	assert.Nil(t, hostname.Value())
	assert.Equal(t, Attribute{}, hostname.Full())
	assert.False(t, hostname.Set("web02"))
	assert.Len(t, a.Attributes, 1)
}

func TestAttr_DeleteThroughEarlierHandle(t *testing.T) {
	a := populatedAsset()
	hostname, err := a.Attr("Hostname")
	require.NoError(t, err)
	tags, err := a.Attr("f2")
	require.NoError(t, err)

	_, ok := hostname.Delete()
	require.True(t, ok)
	removed, ok := tags.Delete()
	require.True(t, ok)
	assert.Equal(t, "f2", removed.FieldID)
	assert.Empty(t, a.Attributes)
	assert.Nil(t, tags.Value())
}
