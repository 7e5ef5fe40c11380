package nlp

// afinn is a subset of the AFINN-165 word list, scores in [-5, 5].
// Stems are listed alongside surface forms where snowball changes the word.
var afinn = map[string]float64{
	"abandon": -2, "abandoned": -2, "abuse": -3, "afraid": -2, "alone": -2,
	"anger": -3, "angry": -3, "anxieti": -2, "anxiety": -2, "anxious": -2,
	"ashamed": -2, "awful": -3, "bad": -3, "broke": -1, "broken": -1,
	"burden": -2, "cri": -2, "cry": -1, "crying": -2, "depress": -2,
	"depressed": -2, "depression": -2, "despair": -3, "desperate": -3,
	"devastated": -2, "difficult": -1, "disappoint": -2, "disappointed": -2,
	"down": -1, "dread": -2, "exhausted": -2, "fail": -2, "failed": -2,
	"failure": -2, "fear": -2, "frustrat": -2, "frustrated": -2, "grief": -2,
	"guilt": -3, "guilty": -3, "hate": -3, "helpless": -2, "hopeless": -2,
	"horrible": -3, "hurt": -2, "lonely": -2, "lost": -3, "miserable": -3,
	"nervous": -2, "overwhelm": -2, "overwhelmed": -2, "pain": -2, "panic": -3,
	"poor": -2, "problem": -2, "sad": -2, "scare": -2, "scared": -2,
	"stress": -1, "stressed": -2, "struggl": -2, "struggling": -2, "stuck": -2,
	"suffer": -2, "terribl": -3, "terrible": -3, "tired": -2, "trouble": -2,
	"unhappi": -2, "unhappy": -2, "upset": -2, "useless": -2, "worri": -3,
	"worried": -3, "worry": -3, "worse": -3, "worst": -3, "worthless": -2,

	"amazing": 4, "awesome": 4, "better": 2, "calm": 2, "confident": 2,
	"excellent": 3, "excit": 3, "excited": 3, "fantastic": 4, "fine": 2,
	"glad": 3, "good": 3, "grate": 3, "grateful": 3, "great": 3, "happi": 3,
	"happy": 3, "help": 2, "helpful": 2, "hope": 2, "hopeful": 2, "improv": 2,
	"improve": 2, "joy": 3, "like": 2, "love": 3, "motivated": 2, "nice": 3,
	"optimist": 2, "optimistic": 2, "perfect": 3, "proud": 2, "relax": 2,
	"relaxed": 2, "relief": 1, "success": 2, "successful": 3, "thank": 2,
	"thanks": 2, "wonder": 4, "wonderful": 4,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "cannot": true, "without": true,
}

var stopwords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "been": true,
	"before": true, "being": true, "could": true, "does": true, "doing": true,
	"from": true, "have": true, "having": true, "here": true, "into": true,
	"just": true, "more": true, "most": true, "much": true, "only": true,
	"other": true, "over": true, "really": true, "same": true, "should": true,
	"some": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "very": true, "want": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"will": true, "with": true, "would": true, "your": true, "need": true,
}
