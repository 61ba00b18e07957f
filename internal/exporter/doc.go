// Package exporter turns comparison views into files.
//
// BuildReport gathers every view of a catalog and selection into a Report.
// Each view renders as a Sheet, which can be written as CSV with a UTF-8 BOM
// (WriteSheet, CSVWriter) or collected into an XLSX workbook with leader
// cells highlighted (WriteWorkbook, SaveWorkbook). FileName derives ASCII
// download names from accented titles.
package exporter
