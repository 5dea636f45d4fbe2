package detection

// KeywordRule maps a substring to a service label. Rules are checked in
// order; the first keyword found in the input text wins.
type KeywordRule struct {
	Keyword string
	Service string
}

// DefaultKeywordTable is the fixed fallback table used when model
// classification is unavailable or fails. Order matters.
var DefaultKeywordTable = []KeywordRule{
	{"driveway", "Driveway Cleaning"},
	{"pressure wash", "Pressure Washing"},
	{"power wash", "Pressure Washing"},
	{"roof", "Roof Cleaning"},
	{"gutter", "Gutter Cleaning"},
	{"window", "Window Cleaning"},
	{"deck", "Deck Cleaning"},
	{"fence", "Fence Cleaning"},
	{"patio", "Patio Cleaning"},
	{"siding", "House Washing"},
	{"house wash", "House Washing"},
	{"solar", "Solar Panel Cleaning"},
	{"concrete", "Concrete Cleaning"},
	{"sidewalk", "Concrete Cleaning"},
}

// GenericService is returned when no tier of the cascade produces a label.
const GenericService = "General Service"
