package fuzzy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LevenshteinDistance is the edit distance between a and b after
// normalization, counted in runes.
func LevenshteinDistance(a, b string) int {
	ra := []rune(normalizeString(a))
	rb := []rune(normalizeString(b))
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			sub := prev[j-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// FuzzyMatch reports whether query appears in text, starts one of its
// words, or is within threshold edits of a word. Short texts are also
// compared as a whole so multi-word queries survive a typo.
func FuzzyMatch(query, text string, threshold int) bool {
	query = normalizeString(query)
	text = normalizeString(text)
	if query == "" {
		return true
	}
	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || LevenshteinDistance(query, word) <= threshold {
			return true
		}
	}

	if utf8.RuneCountInString(text) < 50 {
		return LevenshteinDistance(query, text) <= threshold+utf8.RuneCountInString(query)/5
	}
	return false
}

// Threshold picks the allowed edit distance for a query: short queries must
// be almost exact, long ones tolerate more typos.
func Threshold(query string) int {
	n := len([]rune(normalizeString(query)))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// MatchAny reports whether query fuzzy-matches any of the fields.
func MatchAny(query string, fields ...string) bool {
	threshold := Threshold(query)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if FuzzyMatch(query, f, threshold) {
			return true
		}
	}
	return false
}

// Score ranks how well query matches a title and an optional body.
// Higher score = more relevant.
func Score(query, title, body string) float64 {
	query = normalizeString(query)
	if query == "" {
		return 0
	}
	score := 0.0

	titleNorm := normalizeString(title)
	if strings.Contains(titleNorm, query) {
		score += 100.0
		if containsWord(titleNorm, query) {
			score += 50.0
		}
		if strings.HasPrefix(titleNorm, query) {
			score += 25.0
		}
	} else {
		for _, word := range strings.Fields(titleNorm) {
			if dist := LevenshteinDistance(query, word); dist <= 2 {
				score += 50.0 - float64(dist)*15
			}
			if strings.HasPrefix(word, query) {
				score += 40.0
			}
		}
	}

	bodyNorm := normalizeString(body)
	if bodyNorm != "" && strings.Contains(bodyNorm, query) {
		score += 30.0
	}

	return score
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	// Remove extra whitespace
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	words := strings.Fields(text)
	for _, word := range words {
		if word == query {
			return true
		}
	}
	return false
}

// folds maps precomposed Latin letters to their base letter.
var folds = map[rune]rune{}

func init() {
	for base, accented := range map[rune]string{
		'a': "áàâäãåāăą",
		'c': "çćč",
		'd': "đď",
		'e': "éèêëēėęě",
		'i': "íìîïīį",
		'n': "ñńň",
		'o': "óòôöõøōő",
		's': "śšş",
		'u': "úùûüūůű",
		'y': "ýÿ",
		'z': "źżž",
	} {
		for _, r := range accented {
			folds[r] = base
		}
	}
}

// removeAccents drops combining marks and folds accented Latin letters.
func removeAccents(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if base, ok := folds[r]; ok {
			r = base
		}
		b.WriteRune(r)
	}
	return b.String()
}
