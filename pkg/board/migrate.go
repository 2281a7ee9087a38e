package board

// Logger receives diagnostics from board normalization. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Default item size for legacy documents.
const defaultItemSize = 5

// Migrate normalizes a possibly legacy board document:
//   - missing board width/height take the board defaults
//   - every item gets a type (note if absent) and a non-zero width and height
//   - legacy container "items" lists become containerId references on the
//     contained items
//   - duplicate item ids are logged and dropped (first occurrence wins)
//   - items of unknown type are logged and dropped
//   - container references that do not resolve to a container are cleared
//
// Migrate never fails.
func Migrate(doc BoardDocument, logger Logger) *Board {
	b := &Board{
		ID:     doc.ID,
		Name:   doc.Name,
		Width:  doc.Width,
		Height: doc.Height,
		Items:  make([]Item, 0, len(doc.Items)),
	}
	if b.Width == 0 {
		b.Width = DefaultBoardWidth
	}
	if b.Height == 0 {
		b.Height = DefaultBoardHeight
	}

	warnf := func(format string, v ...any) {
		if logger != nil {
			logger.Printf("[WARN] "+format, v...)
		}
	}

	seen := make(map[string]bool, len(doc.Items))
	var kept []ItemDocument
	for _, d := range doc.Items {
		if d.ID == "" {
			warnf("Item without id found on board '%s', dropping it", doc.Name)
			continue
		}
		if seen[d.ID] {
			warnf("Duplicate item %s found on board '%s', dropping it", d.ID, doc.Name)
			continue
		}
		seen[d.ID] = true

		if d.Type == "" {
			d.Type = ItemTypeNote
		}
		if err := d.Type.Validate(); err != nil {
			warnf("Item %s on board '%s' has %v, dropping it", d.ID, doc.Name, err)
			continue
		}
		if d.Width == 0 {
			d.Width = defaultItemSize
		}
		if d.Height == 0 {
			d.Height = defaultItemSize
		}
		kept = append(kept, d)
	}

	// Legacy containers listed their contents; contents now point back instead.
	types := make(map[string]ItemType, len(kept))
	for _, d := range kept {
		types[d.ID] = d.Type
	}
	legacy := make(map[string]string)
	for _, d := range kept {
		if d.Type != ItemTypeContainer {
			continue
		}
		for _, id := range d.Items {
			if t, ok := types[id]; ok && t != ItemTypeContainer {
				legacy[id] = d.ID
			}
		}
	}

	for _, d := range kept {
		if containerID, ok := legacy[d.ID]; ok {
			d.ContainerID = containerID
		}
		if d.Type != ItemTypeContainer && d.ContainerID != "" && types[d.ContainerID] != ItemTypeContainer {
			warnf("Item %s on board '%s' references missing container %s, clearing it", d.ID, doc.Name, d.ContainerID)
			d.ContainerID = ""
		}
		b.Items = append(b.Items, d.item())
	}

	return b
}
