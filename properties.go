package deck

import "strings"

// DocumentProperties is the metadata written into exported documents.
type DocumentProperties struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	// Creator names the producing application. Default: "presentation-maker <version>".
	Creator string
}

// DefaultCreator returns the creator recorded when none is configured.
func DefaultCreator() string {
	return "presentation-maker " + Version
}

// withDefaults fills Title from p and Creator from DefaultCreator when unset.
func (dp DocumentProperties) withDefaults(p Presentation) DocumentProperties {
	if strings.TrimSpace(dp.Title) == "" {
		dp.Title = p.Title
	}
	if dp.Creator == "" {
		dp.Creator = DefaultCreator()
	}
	return dp
}

// KeywordString joins keywords the way PDF readers display them.
func (dp DocumentProperties) KeywordString() string {
	kw := make([]string, 0, len(dp.Keywords))
	for _, k := range dp.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	return strings.Join(kw, ", ")
}
