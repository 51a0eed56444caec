// Package collect implements the pipeline's signal collectors: the
// structural-markup extractor, the heuristic content-structure analyzer
// and the reasoning-service (vision) adapter. Each collector turns one
// kind of raw page evidence into ExtractionCandidates for the fusion
// engine.
package collect

// Page is the raw material one pipeline run works from. Either field may
// be empty when the corresponding upstream failed.
type Page struct {
	URL        string
	HTML       string
	Screenshot []byte
}
