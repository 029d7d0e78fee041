package translate

// DefaultBaseLanguage is the language canonical content is written in unless
// BASE_LANGUAGE says otherwise.
const DefaultBaseLanguage = "English"

// languages maps the human readable names shown in the language selector to
// the codes the translation endpoint accepts.  Order is the display order.
var languages = []struct {
	Name string
	Code string
}{
	{"English", "en-IN"},
	{"Hindi", "hi-IN"},
	{"Bengali", "bn-IN"},
	{"Tamil", "ta-IN"},
	{"Telugu", "te-IN"},
	{"Marathi", "mr-IN"},
	{"Gujarati", "gu-IN"},
	{"Kannada", "kn-IN"},
	{"Malayalam", "ml-IN"},
	{"Punjabi", "pa-IN"},
	{"Odia", "od-IN"},
}

// LookupCode returns the endpoint code for a language name.
func LookupCode(name string) (string, bool) {
	for _, l := range languages {
		if l.Name == name {
			return l.Code, true
		}
	}
	return "", false
}

// NameForCode is the inverse of LookupCode.
func NameForCode(code string) (string, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l.Name, true
		}
	}
	return "", false
}

// Supported lists every language name in display order.
func Supported() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.Name)
	}
	return names
}
