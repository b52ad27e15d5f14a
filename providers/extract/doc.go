// Package extract converts input papers (PDF, HTML, plain text) into a
// page-split markdown Document consumed by the pipeline.
package extract
