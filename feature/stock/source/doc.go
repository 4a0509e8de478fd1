// Package source implements the two stock fact sources consumed by the
// reconcile engine: the live marketplace API and the UI-exported XLSX report
// files in object storage. It also provides the quarantine mover that puts
// malformed report files aside.
//
// Both adapters translate their failures into the recovery package's error
// taxonomy so the controller can decide between retrying, tripping the
// circuit, and quarantining.
package source
