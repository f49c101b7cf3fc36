package genre

// Aliases maps common variations onto catalog ids.
var Aliases = map[string]string{
	"sci-fi":               "science-fiction",
	"scifi":                "science-fiction",
	"sf":                   "science-fiction",
	"mystery":              "mystery-thriller",
	"thriller":             "mystery-thriller",
	"suspense":             "mystery-thriller",
	"crime":                "mystery-thriller",
	"ya":                   "young-adult",
	"teen":                 "young-adult",
	"memoir":               "biography-memoir",
	"biography":            "biography-memoir",
	"self-development":     "self-help",
	"personal-development": "self-help",
	"business":             "business-finance",
	"finance":              "business-finance",
	"science":              "science-nature",
	"nature":               "science-nature",
	"comedy":               "humor",
	"historical":           "historical-fiction",
	"literary":             "literary-fiction",
}

// Resolve maps raw input (an id, alias, name or subgenre name) onto a
// catalog id.
func Resolve(raw string) (string, bool) {
	slug := Slugify(raw)
	if _, ok := Lookup(slug); ok {
		return slug, true
	}
	if id, ok := Aliases[slug]; ok {
		return id, true
	}
	for _, s := range DefaultCatalog {
		for _, sub := range s.Subgenres {
			if Slugify(sub) == slug {
				return s.ID(), true
			}
		}
	}
	return "", false
}
