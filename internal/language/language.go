package language

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is the study language used when a request names none.
const Default = "en"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2
	display string   // English name
	words   []string // accepted word forms
}

var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"es", "spa", "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", "fra", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "German", []string{"german", "deutsch"}},
	{"it", "ita", "Italian", []string{"italian", "italiano"}},
	{"pt", "por", "Portuguese", []string{"portuguese", "portugues", "português"}},
	{"nl", "nld", "Dutch", []string{"dutch", "nederlands"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "Korean", []string{"korean"}},
	{"zh", "zho", "Chinese", []string{"chinese"}},
	{"ru", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

// Option is one entry of the study-language picker.
type Option struct {
	Code   string
	Name   string
	Native string
}

// Supported returns the picker options sorted by English name, with the
// default language first.
func Supported() []Option {
	out := make([]Option, 0, len(languages))
	for _, e := range languages {
		out = append(out, Option{Code: e.code2, Name: e.display, Native: NativeName(e.code2)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code == Default || out[j].Code == Default {
			return out[i].Code == Default
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func lookup(input string) *entry {
	code := strings.ToLower(strings.TrimSpace(input))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// BCP 47 tags such as "pt-BR" or "zh-Hant" resolve through their base.
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return nil
	}
	base, _ := tag.Base()
	if e, ok := byCode2[base.String()]; ok {
		return e
	}
	if e, ok := byCode3[base.ISO3()]; ok {
		return e
	}
	return nil
}

// Normalize maps a code, BCP 47 tag, or language word to a supported ISO 639-1
// code. Blank input yields Default.
func Normalize(input string) (string, bool) {
	if strings.TrimSpace(input) == "" {
		return Default, true
	}
	if e := lookup(input); e != nil {
		return e.code2, true
	}
	return "", false
}

// DisplayName returns the English name for a supported language, or the
// uppercased input for anything else.
func DisplayName(input string) string {
	if strings.TrimSpace(input) == "" {
		return "Unknown"
	}
	if e := lookup(input); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(input))
}

// NativeName returns the language's own name for itself, title-cased in that
// language (for example "Español"). Falls back to DisplayName.
func NativeName(input string) string {
	e := lookup(input)
	if e == nil {
		return DisplayName(input)
	}
	tag := xlanguage.Make(e.code2)
	name := display.Self.Name(tag)
	if name == "" {
		return e.display
	}
	return cases.Title(tag).String(name)
}
