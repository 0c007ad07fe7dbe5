package model

// SourceIndex identifies one index whose component list feeds the candidate table.
type SourceIndex struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// IndexMembers is the result of fetching one index component page.
type IndexMembers struct {
	Index   SourceIndex
	Codes   []string
	Sectors map[string]string // code -> sector
}

// Quote is the current observation for a single code. Nil fields failed to parse.
type Quote struct {
	Code          string
	CompanyName   string
	Price         *float64
	DividendYield *float64 // percent
	URL           string
}

// CandidateRow is one scraped observation for a code, tagged by the index it came from.
// A code listed in several indexes yields several rows.
type CandidateRow struct {
	Code          string
	Sector        string
	DividendYield *float64 // percent
	CompanyName   string
	Price         *float64
	SourceURL     string
	SourceIndex   string
}

// Float returns a pointer to v, for building nullable fields.
func Float(v float64) *float64 { return &v }
