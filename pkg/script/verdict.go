package script

// Category classifies why a script was rejected.
type Category string

const (
	CategorySyntaxError          Category = "syntax_error"
	CategoryForbiddenImport      Category = "forbidden_import"
	CategoryForbiddenCapability  Category = "forbidden_capability"
	CategoryForbiddenAttribute   Category = "forbidden_attribute"
	CategoryMissingResultBinding Category = "missing_result_binding"
	CategoryLengthExceeded       Category = "length_exceeded"
)

// Verdict is the outcome of static validation. A Verdict is a pure function
// of the script text and the validator's configuration: identical input
// always yields an identical verdict.
type Verdict struct {
	OK       bool     `json:"ok"`
	Category Category `json:"category,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Accept returns an accepting verdict.
func Accept() Verdict { return Verdict{OK: true} }

// Reject returns a rejecting verdict with a category and human-readable detail.
func Reject(cat Category, detail string) Verdict {
	return Verdict{OK: false, Category: cat, Detail: detail}
}
