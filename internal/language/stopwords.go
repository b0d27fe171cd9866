package language

// stopwords holds a small high-frequency function-word set per supported
// language, enough to disambiguate short policy queries without a full
// statistical model. Covers all 24 official EU languages so Detect never
// has to default a genuinely recognized language to English. Not
// exhaustive; extend per-language lists as false detections surface in
// practice.
var stopwords = map[string]map[string]struct{}{
	"en": set("the", "is", "are", "what", "how", "does", "and", "for", "of", "in", "to", "this", "that", "a", "an"),
	"fr": set("le", "la", "les", "est", "sont", "que", "quoi", "comment", "et", "pour", "de", "des", "dans", "un", "une", "ce"),
	"de": set("der", "die", "das", "ist", "sind", "was", "wie", "und", "für", "von", "in", "ein", "eine", "diese"),
	"nl": set("de", "het", "is", "zijn", "wat", "hoe", "en", "voor", "van", "in", "een", "dit", "deze"),
	"es": set("el", "la", "los", "las", "es", "son", "que", "como", "y", "para", "de", "en", "un", "una", "este"),
	"it": set("il", "lo", "la", "gli", "le", "è", "sono", "che", "come", "e", "per", "di", "in", "un", "una", "questo"),
	"pl": set("i", "w", "na", "jest", "są", "co", "jak", "dla", "z", "to", "ten", "ta"),
	"pt": set("o", "a", "os", "as", "é", "são", "que", "como", "e", "para", "de", "em", "um", "uma", "este"),
	"bg": set("и", "е", "са", "какво", "как", "за", "на", "в", "този", "тази", "от", "със"),
	"hr": set("je", "su", "što", "kako", "i", "za", "od", "u", "ovaj", "ova", "na", "ovo"),
	"cs": set("je", "jsou", "co", "jak", "a", "pro", "z", "v", "tento", "tato", "na", "toto"),
	"da": set("er", "hvad", "hvordan", "og", "for", "af", "i", "denne", "dette", "på", "den", "det"),
	"et": set("on", "mis", "kuidas", "ja", "jaoks", "see", "selle", "mille", "ning"),
	"fi": set("on", "ovat", "mitä", "miten", "ja", "tämä", "tässä", "varten", "joka"),
	"el": set("είναι", "τι", "πώς", "και", "για", "από", "σε", "αυτό", "αυτή", "με"),
	"hu": set("van", "vannak", "mi", "hogyan", "és", "ez", "ehhez", "mert", "ezt"),
	"ga": set("is", "cad", "conas", "agus", "seo", "ón", "atá", "faoi"),
	"lv": set("ir", "kas", "kā", "un", "priekš", "šis", "šī", "par", "no"),
	"lt": set("yra", "kas", "kaip", "ir", "dėl", "šis", "ši", "apie"),
	"mt": set("huwa", "hija", "kif", "u", "għal", "dan", "din", "mill"),
	"ro": set("este", "sunt", "ce", "cum", "și", "pentru", "de", "în", "acest", "această"),
	"sk": set("je", "sú", "čo", "ako", "a", "pre", "z", "v", "tento", "táto"),
	"sl": set("je", "so", "kaj", "kako", "in", "za", "od", "v", "ta", "to"),
	"sv": set("är", "vad", "hur", "och", "för", "av", "i", "denna", "detta", "den", "det"),
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
