// Package files turns uploaded archives, local folders and loose files into
// dated, chronologically ordered sources.
//
// Discovery and OpenArchive produce undated RawItems with relative paths.
// Locator reads the period metadata from those paths (folder segments in
// archive mode, the trailing file name token in flat mode) and sorts the
// result. Workspace owns the scratch directory of a single run.
//
// Example usage:
//
//	items, err := files.OpenArchive("takas.zip", payload)
//	locator := files.NewLocator(files.LocatorOptions{Mode: domain.SourceModeArchive}, logger)
//	located := locator.Locate(domain.SourceKindTakas, items)
package files
