package language

import "strings"

type entry struct {
	code2     string   // ISO 639-1 (2-letter)
	code3     string   // ISO 639-2/T, also tesseract's traineddata name
	alt3      string   // ISO 639-2/B alternate (e.g. "fre" vs "fra")
	tesseract string   // traineddata name when it differs from code3
	display   string   // Human-readable name
	words     []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "", "English", []string{"english"}},
	{"es", "spa", "", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "", "French", []string{"french"}},
	{"de", "deu", "ger", "", "German", []string{"german"}},
	{"it", "ita", "", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "chi_sim", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "", "Turkish", []string{"turkish"}},
	{"uk", "ukr", "", "", "Ukrainian", []string{"ukrainian"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
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
	return nil
}

func (e *entry) traineddata() string {
	if e.tesseract != "" {
		return e.tesseract
	}
	return e.code3
}

// Tesseract converts a "+"-joined language list to tesseract traineddata
// names. Unrecognized parts such as "chi_tra" or "script/Latin" pass through
// unchanged, and duplicates are dropped.
func Tesseract(langs string) string {
	seen := make(map[string]struct{})
	var out []string
	for part := range strings.SplitSeq(langs, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if e := lookup(part); e != nil {
			part = e.traineddata()
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return strings.Join(out, "+")
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the code itself for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.TrimSpace(code)
}

// DisplayList renders a "+"-joined language list as display names.
func DisplayList(langs string) string {
	var names []string
	for part := range strings.SplitSeq(langs, "+") {
		if strings.TrimSpace(part) != "" {
			names = append(names, DisplayName(part))
		}
	}
	return strings.Join(names, ", ")
}
