// Package gofilegdb reads Esri file geodatabase table files
// (.gdbtable) and their sidecars without external dependencies on the
// geodatabase SDK.
//
// The library is organized into logical groups of functionality:
//
// Table Access:
//   - table.go: Open, header parsing and field descriptor section
//   - options.go: Open-time configuration (count policies, logging)
//   - tablx.go: .gdbtablx record offset index (V3 and V4 layouts)
//   - guess.go: record location scanning when no offset index exists
//   - row.go: row selection and field value decoding
//   - envelope.go: per-row geometry access and spatial filtering
//   - indexes.go: .gdbindexes attribute index catalog
//
// Subpackages:
//   - format: little-endian readers, variable-length integers, cursors
//   - schema: field descriptor section and field type definitions
//   - geometry: shape stream decoding into go-geom geometries,
//     bounding box extraction and envelope filtering
//
// Basic usage:
//
//	tab, _ := gofilegdb.Open("a00000009.gdbtable", nil)
//	defer tab.Close()
//
//	for row, _ := tab.GetAndSelectNextNonEmptyRow(0); row >= 0; row, _ = tab.GetAndSelectNextNonEmptyRow(row + 1) {
//	    name, _ := tab.GetFieldValue(tab.FieldIndex("NAME"))
//	    g, _ := tab.CurrentRowGeometry()
//	    _ = name
//	    _ = g
//	}
package gofilegdb
