package gesture

// Vocabulary is the set of words taught by the practice screens.
var Vocabulary = []string{
	"Saya",
	"Makan",
	"Minum",
	"Bersama",
	"Teman",
	"Selamat",
	"Malam",
	"Pagi",
	"Tidur",
}

// InVocabulary reports whether word is one of the taught words.
func InVocabulary(word string) bool {
	for _, w := range Vocabulary {
		if w == word {
			return true
		}
	}
	return false
}
