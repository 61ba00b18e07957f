// Package remote loads agency tables from hosted spreadsheets: per-sheet CSV
// exports of a public document, an Apps Script web app dumping every sheet as
// JSON, and the Sheets v4 values API.
package remote
