// Package files finds agency KPI files on disk.
//
// Discovery expands command line arguments into the files to load. A
// directory contributes every file the ingest parsers understand, while
// hidden files and Office lock files are ignored. Plain file arguments are
// checked for existence and readability before any parsing starts.
//
//	d := files.NewDiscovery(logger)
//	found, err := d.Expand([]string{"exports/", "extra/Mazda.xlsx"})
package files
