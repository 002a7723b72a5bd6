package models

// Result is a raw analysis row as the worker stores it: one trait of one
// personality model for one book.
type Result struct {
	ID         int64  `json:"id"`
	ModelName  string `json:"modelName"`
	TraitName  string `json:"traitName"`
	TraitValue string `json:"traitValue"`
}

// Hero is a result joined with its static superpower metadata, ready for
// delivery to an authenticated client.
type Hero struct {
	ID          int64  `json:"id"`
	ModelName   string `json:"modelName"`
	SuperPower  string `json:"superPower"`
	Description string `json:"description"`
}

// PublicHero is the anonymous-flow variant; no row id since nothing is
// persisted for public analyses.
type PublicHero struct {
	ModelName   string `json:"modelName"`
	SuperPower  string `json:"superPower"`
	Description string `json:"description"`
}

// HeroJob is the job descriptor published for an authenticated analysis.
type HeroJob struct {
	UserID int64 `json:"userId"`
	BookID int64 `json:"bookId"`
}

// PublicHeroJob is the job descriptor for an anonymous analysis, scoped to a
// client-side session id.
type PublicHeroJob struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// HeroCompletion is what the worker publishes when an authenticated job is
// done; the enriched rows are fetched from storage, not carried in the message.
type HeroCompletion struct {
	UserID int64 `json:"userId"`
	BookID int64 `json:"bookId"`
}

// PublicHeroCompletion carries the raw results inline since public analyses
// are never persisted.
type PublicHeroCompletion struct {
	Results   []Result `json:"results"`
	SessionID string   `json:"sessionId"`
}

type Book struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Title  string `json:"title"`
}
