package utils

// Server-side messages only; item text comes from the survey document.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":          "ok",
		"error.invalid":      "the request is invalid",
		"error.not_found":    "not found",
		"error.forbidden":    "forbidden",
		"error.conflict":     "already exists",
		"error.unauthorized": "authentication required",
		"error.internal":     "internal error",
		"session.completed":  "thank you, your answers have been submitted",
		"survey.closed":      "this survey is not open",
	},
	"de": {
		"health.ok":          "ok",
		"error.invalid":      "die Anfrage ist ungültig",
		"error.not_found":    "nicht gefunden",
		"error.forbidden":    "nicht erlaubt",
		"error.conflict":     "existiert bereits",
		"error.unauthorized": "Anmeldung erforderlich",
		"error.internal":     "interner Fehler",
		"session.completed":  "vielen Dank, Ihre Antworten wurden übermittelt",
		"survey.closed":      "diese Umfrage ist nicht geöffnet",
	},
}

// SupportedLocales lists the locales T knows about, default first.
var SupportedLocales = []string{"en", "de"}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if v, ok := translations[locale][key]; ok {
		return v
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
