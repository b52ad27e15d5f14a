// Package agent assembles and runs the paper summarization pipeline on top
// of the state graph engine: document conversion, paper type detection,
// section and metadata extraction, keyword enrichment, parallel per-aspect
// or per-section analysis, length control, translation and report
// generation.
package agent
