package compliance

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupDocumentTypesPartition(t *testing.T) {
	defs := []DocumentTypeDefinition{
		{DocumentTypeID: "cv", Name: "Curriculum"},
		{DocumentTypeID: "hep-b", Name: "Hepatitis B", DoseCount: "3"},
		{DocumentTypeID: "rx", Name: "Radiografía", DoseCount: "1"},
	}

	entries := GroupDocumentTypes(defs)
	require.Len(t, entries, 3)

	assert.Equal(t, EntryKindGroup, entries[0].Kind)
	assert.Equal(t, "hep-b", entries[0].DocumentTypeID)
	assert.Equal(t, 3, entries[0].DeclaredDoseCount)

	assert.Equal(t, EntryKindStandalone, entries[1].Kind)
	assert.Equal(t, "cv", entries[1].DocumentTypeID)
	assert.Equal(t, 1, entries[1].DeclaredDoseCount)
	assert.Equal(t, "rx", entries[2].DocumentTypeID)
}

func TestGroupDocumentTypesOrder(t *testing.T) {
	defs := []DocumentTypeDefinition{
		{DocumentTypeID: "a"},
		{DocumentTypeID: "tet", DoseCount: "2"},
		{DocumentTypeID: "b"},
		{DocumentTypeID: "hep-b", DoseCount: "3"},
	}

	var ids []string
	for _, e := range GroupDocumentTypes(defs) {
		ids = append(ids, e.DocumentTypeID)
	}
	assert.Equal(t, []string{"tet", "hep-b", "a", "b"}, ids)
}

func TestGroupDocumentTypesDuplicates(t *testing.T) {
	defs := []DocumentTypeDefinition{
		{DocumentTypeID: "hep-b", Name: "Hepatitis B", DoseCount: "3"},
		{DocumentTypeID: "hep-b", Name: "Hepatitis B (dup)", DoseCount: "2"},
	}

	entries := GroupDocumentTypes(defs)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hepatitis B", entries[0].Name)
	assert.Equal(t, 3, entries[0].DeclaredDoseCount)
}

func TestGroupDocumentTypesDoseCountShapes(t *testing.T) {
	var defs []DocumentTypeDefinition
	require.NoError(t, json.Unmarshal([]byte(`[
		{"documentTypeId": "num", "doseCount": 2},
		{"documentTypeId": "str", "doseCount": "3"},
		{"documentTypeId": "label", "doseCount": "varias"},
		{"documentTypeId": "null", "doseCount": null},
		{"documentTypeId": "zero", "doseCount": 0}
	]`), &defs))

	entries := GroupDocumentTypes(defs)
	require.Len(t, entries, 5)

	kinds := map[string]EntryKind{}
	for _, e := range entries {
		kinds[e.DocumentTypeID] = e.Kind
	}
	assert.Equal(t, map[string]EntryKind{
		"num":   EntryKindGroup,
		"str":   EntryKindGroup,
		"label": EntryKindStandalone,
		"null":  EntryKindStandalone,
		"zero":  EntryKindStandalone,
	}, kinds)
}

func TestGroupDocumentTypesEmpty(t *testing.T) {
	assert.Empty(t, GroupDocumentTypes(nil))
}

func TestCatalogEntryDoseGroup(t *testing.T) {
	entries := GroupDocumentTypes([]DocumentTypeDefinition{
		{DocumentTypeID: "hep-b", DoseCount: "3"},
		{DocumentTypeID: "cv"},
	})

	g := entries[0].DoseGroup()
	require.NotNil(t, g)
	assert.Equal(t, 3, g.DeclaredDoseCount)
	assert.Equal(t, "hep-b", g.Definition.DocumentTypeID)
	assert.Nil(t, entries[1].DoseGroup())
}

func TestGroupDocumentTypesBoundsDoseCount(t *testing.T) {
	defs := []DocumentTypeDefinition{
		{DocumentTypeID: "huge", DoseCount: "1e18"},
		{DocumentTypeID: "overflow", DoseCount: "1e30"},
		{DocumentTypeID: "above-cap", DoseCount: FlexNumber(strconv.Itoa(MaxDoseCount + 1))},
		{DocumentTypeID: "at-cap", DoseCount: FlexNumber(strconv.Itoa(MaxDoseCount))},
		{DocumentTypeID: "zero", DoseCount: "0"},
		{DocumentTypeID: "negative", DoseCount: "-3"},
	}

	entries := GroupDocumentTypes(defs)
	require.Len(t, entries, 6)

	assert.Equal(t, EntryKindGroup, entries[0].Kind)
	assert.Equal(t, "at-cap", entries[0].DocumentTypeID)
	assert.Equal(t, MaxDoseCount, entries[0].DeclaredDoseCount)

	for _, e := range entries[1:] {
		assert.Equal(t, EntryKindStandalone, e.Kind, e.DocumentTypeID)
		assert.Equal(t, 1, e.DeclaredDoseCount, e.DocumentTypeID)
	}
}
