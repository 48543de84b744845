package compliance

// GroupDocumentTypes partitions the catalog into multi-dose groups and standalone types.
//
// Output order: every group first, in order of first appearance, followed by every
// standalone type in input order. When several definitions share an id, only the first
// one with doseCount > 1 forms a group and later multi-dose duplicates are dropped.
func GroupDocumentTypes(defs []DocumentTypeDefinition) []CatalogEntry {
	var groups, standalone []CatalogEntry
	seen := make(map[string]bool)

	for _, def := range defs {
		doses := def.DeclaredDoseCount()
		if doses <= 1 {
			standalone = append(standalone, CatalogEntry{
				Kind:              EntryKindStandalone,
				DocumentTypeID:    def.DocumentTypeID,
				Name:              def.Name,
				DeclaredDoseCount: doses,
				Definition:        def,
			})
			continue
		}

		if seen[def.DocumentTypeID] {
			continue
		}
		seen[def.DocumentTypeID] = true
		groups = append(groups, CatalogEntry{
			Kind:              EntryKindGroup,
			DocumentTypeID:    def.DocumentTypeID,
			Name:              def.Name,
			DeclaredDoseCount: doses,
			Definition:        def,
		})
	}

	entries := make([]CatalogEntry, 0, len(groups)+len(standalone))
	entries = append(entries, groups...)
	return append(entries, standalone...)
}
