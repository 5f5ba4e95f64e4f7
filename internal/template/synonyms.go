package template

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Rand is the subset of *rand.Rand used for paraphrasing.
type Rand interface {
	IntN(n int) int
}

type phrase struct {
	words     []string
	canonical string
}

// Synonyms maps canonical phrases to interchangeable alternatives. Matching is
// by whole words, longest phrase first, so "left of" never fires inside
// "to the left of".
type Synonyms struct {
	alternatives map[string][]string // canonical -> canonical plus alternatives
	phrases      []phrase
}

// NewSynonyms builds a synonym table from canonical -> alternatives.
func NewSynonyms(table map[string][]string) *Synonyms {
	s := &Synonyms{alternatives: make(map[string][]string, len(table))}
	seen := make(map[string]bool)

	canonicals := make([]string, 0, len(table))
	for c := range table {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	for _, c := range canonicals {
		key := strings.ToLower(c)
		forms := []string{key}
		for _, alt := range table[c] {
			alt = strings.ToLower(alt)
			if !slices.Contains(forms, alt) {
				forms = append(forms, alt)
			}
		}
		s.alternatives[key] = forms
		for _, f := range forms {
			if seen[f] {
				continue
			}
			seen[f] = true
			s.phrases = append(s.phrases, phrase{words: tokenize(f), canonical: key})
		}
	}

	sort.SliceStable(s.phrases, func(i, j int) bool {
		return len(s.phrases[i].words) > len(s.phrases[j].words)
	})
	return s
}

// LoadSynonyms decodes a synonyms file. A missing file yields an empty table.
func LoadSynonyms(fsys fs.FS, name string) (*Synonyms, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSynonyms(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	var table map[string][]string
	if err := sonic.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode synonyms %s: %w", name, err)
	}
	return NewSynonyms(table), nil
}

// Normalize folds case, spacing and every synonym to its canonical phrase.
// Two texts that differ only by paraphrase normalize to the same string.
func (s *Synonyms) Normalize(text string) string {
	words := tokenize(strings.ToLower(text))
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if p, ok := s.match(words[i:]); ok {
			out = append(out, p.canonical)
			i += len(p.words)
			continue
		}
		out = append(out, words[i])
		i++
	}
	return join(out)
}

// Paraphrase replaces each known phrase with a randomly chosen equivalent.
func (s *Synonyms) Paraphrase(text string, rng Rand) string {
	if len(s.phrases) == 0 {
		return text
	}
	original := tokenize(text)
	words := tokenize(strings.ToLower(text))
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if p, ok := s.match(words[i:]); ok {
			forms := s.alternatives[p.canonical]
			out = append(out, forms[rng.IntN(len(forms))])
			i += len(p.words)
			continue
		}
		out = append(out, original[i])
		i++
	}
	return Capitalize(join(out))
}

func (s *Synonyms) match(words []string) (phrase, bool) {
	for _, p := range s.phrases {
		if len(p.words) <= len(words) && slices.Equal(p.words, words[:len(p.words)]) {
			return p, true
		}
	}
	return phrase{}, false
}

// tokenize splits on whitespace and keeps ? , ; as separate tokens.
func tokenize(text string) []string {
	r := strings.NewReplacer("?", " ? ", ",", " , ", ";", " ; ")
	return strings.Fields(r.Replace(text))
}

func join(words []string) string {
	text := strings.Join(words, " ")
	r := strings.NewReplacer(" ?", "?", " ,", ",", " ;", ";")
	return r.Replace(text)
}

// Capitalize upper-cases the first letter of text.
func Capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
