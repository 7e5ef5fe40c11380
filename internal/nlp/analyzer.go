package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TextAnalyzer is the text-analysis capability the dialogue engine depends on
type TextAnalyzer interface {
	Tokenize(text string) []string
	Stem(token string) string
	Sentiment(tokens []string) float64
}

// Analysis is the result of running a TextAnalyzer over one input line
type Analysis struct {
	Original  string              `json:"original"`
	Text      string              `json:"text"`
	Tokens    []string            `json:"tokens"`
	Stems     []string            `json:"stems"`
	Sentiment float64             `json:"sentiment"`
	Entities  map[string][]string `json:"entities,omitempty"`
}

// Config holds analyzer settings
type Config struct {
	EnableStemming  bool `yaml:"enable_stemming"`
	EnableSentiment bool `yaml:"enable_sentiment"`
}

// DefaultConfig returns the default analyzer configuration
func DefaultConfig() *Config {
	return &Config{
		EnableStemming:  true,
		EnableSentiment: true,
	}
}

// Analyzer is the default TextAnalyzer: snowball stemming and a lexicon sentiment score
type Analyzer struct {
	config  *Config
	lexicon map[string]float64
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Analyzer{
		config:  config,
		lexicon: afinn,
	}
}

var contractions = map[string]string{
	"i'm":     "i am",
	"you're":  "you are",
	"we're":   "we are",
	"they're": "they are",
	"it's":    "it is",
	"don't":   "do not",
	"doesn't": "does not",
	"didn't":  "did not",
	"can't":   "cannot",
	"won't":   "will not",
	"isn't":   "is not",
	"aren't":  "are not",
	"i've":    "i have",
	"i'll":    "i will",
	"i'd":     "i would",
}

var entityPatterns = map[string]*regexp.Regexp{
	"amounts":     regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?|\b\d{3,}(?:,\d{3})*\b`),
	"durations":   regexp.MustCompile(`(?i)\b\d+\s+(?:hours?|days?|weeks?|months?|years?)\b`),
	"percentages": regexp.MustCompile(`\b\d+(?:\.\d+)?%`),
}

// Normalize lower-cases the text, applies NFKC, expands contractions and collapses whitespace
func (a *Analyzer) Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.NewReplacer("’", "'", "‘", "'").Replace(text)
	// Casers are stateful and must not be shared across goroutines.
	text = cases.Lower(language.English).String(text)
	words := strings.Fields(text)
	for i, w := range words {
		if exp, ok := contractions[w]; ok {
			words[i] = exp
		}
	}
	return strings.Join(words, " ")
}

// Tokenize splits normalized text into word tokens
func (a *Analyzer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(a.Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Stem returns the English snowball stem of token
func (a *Analyzer) Stem(token string) string {
	if !a.config.EnableStemming {
		return token
	}
	return english.Stem(token, false)
}

// Sentiment returns the mean lexicon score per token, clamped to [-1, 1]
func (a *Analyzer) Sentiment(tokens []string) float64 {
	if !a.config.EnableSentiment || len(tokens) == 0 {
		return 0
	}

	total := 0.0
	negate := false
	for _, tok := range tokens {
		if negators[tok] {
			negate = true
			continue
		}
		score, ok := a.lexicon[tok]
		if !ok {
			score, ok = a.lexicon[a.Stem(tok)]
		}
		if ok {
			if negate {
				score = -score
			}
			total += score
		}
		negate = false
	}

	return Clamp(total/float64(len(tokens)), -1, 1)
}

// Analyze runs the full analysis pipeline of analyzer over text
func Analyze(analyzer TextAnalyzer, text string) *Analysis {
	result := &Analysis{
		Original: text,
		Text:     strings.ToLower(strings.TrimSpace(text)),
		Entities: map[string][]string{},
	}
	if n, ok := analyzer.(interface{ Normalize(string) string }); ok {
		result.Text = n.Normalize(text)
	}

	result.Tokens = analyzer.Tokenize(text)
	result.Stems = make([]string, len(result.Tokens))
	for i, tok := range result.Tokens {
		result.Stems[i] = analyzer.Stem(tok)
	}
	result.Sentiment = analyzer.Sentiment(result.Tokens)

	for kind, re := range entityPatterns {
		if matches := re.FindAllString(text, -1); len(matches) > 0 {
			result.Entities[kind] = matches
		}
	}
	var keywords []string
	for _, tok := range result.Tokens {
		if len(tok) > 3 && !stopwords[tok] {
			keywords = append(keywords, tok)
		}
	}
	if len(keywords) > 0 {
		result.Entities["keywords"] = keywords
	}

	return result
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
