package replies

// Key identifies a canned bot reply.
type Key string

const (
	KeyWelcome       Key = "welcome"        // first message of a session, nothing recognized
	KeyNoSymptoms    Key = "no_symptoms"    // nothing recognized mid-session
	KeyMoreSymptoms  Key = "more_symptoms"  // %s = accumulated symptoms; need more before matching
	KeySymptomsNoted Key = "symptoms_noted" // %s = accumulated symptoms; no disease matched
	KeyDiagnosis     Key = "diagnosis"      // %s = symptoms, %s = disease, %s = medicine lines
	KeyAdvice        Key = "advice"         // %s = advice lines
	KeyDailyLimit    Key = "daily_limit"    // %d = daily chat limit
	KeyResponseLimit Key = "response_limit" // %d = per-chat response limit
	KeyUnavailable   Key = "unavailable"
	KeyBadLanguage   Key = "bad_language"
)

var english = map[Key]string{
	KeyWelcome:       "Hello! I'm your health assistant. Tell me about your symptoms and I'll try to help.",
	KeyNoSymptoms:    "I couldn't recognize any symptoms in that. Could you describe how you're feeling, for example \"I have a fever and a headache\"?",
	KeyMoreSymptoms:  "I've noted: %s. Could you tell me about any other symptoms so I can narrow it down?",
	KeySymptomsNoted: "I've noted your symptoms (%s) but couldn't match them to a condition I know. Please consult a healthcare professional.",
	KeyDiagnosis:     "Based on your symptoms (%s), you may have: %s.\n\nRecommended medicines:\n%s\n\nThis is general guidance, not a medical diagnosis. Please consult a doctor.",
	KeyAdvice:        "Care advice:\n%s",
	KeyDailyLimit:    "You've reached your daily chat limit (%d chats). Please upgrade your plan or try again tomorrow.",
	KeyResponseLimit: "You've reached the response limit for this chat (%d responses). Please start a new chat.",
	KeyUnavailable:   "I'm temporarily unavailable. Please try again in a moment.",
	KeyBadLanguage:   "That language isn't available on your current plan. Please switch language or upgrade your plan.",
}

var hindi = map[Key]string{
	KeyWelcome:       "नमस्ते! मैं आपका स्वास्थ्य सहायक हूँ। अपने लक्षण बताइए, मैं मदद करने की कोशिश करूँगा।",
	KeyNoSymptoms:    "मुझे इसमें कोई लक्षण समझ नहीं आया। कृपया बताइए कि आप कैसा महसूस कर रहे हैं, जैसे \"मुझे बुखार और सिरदर्द है\"।",
	KeyMoreSymptoms:  "मैंने नोट किया: %s। कृपया कोई और लक्षण बताइए ताकि मैं बेहतर अनुमान लगा सकूँ।",
	KeySymptomsNoted: "मैंने आपके लक्षण (%s) नोट किए हैं, लेकिन किसी ज्ञात बीमारी से मेल नहीं खा पाया। कृपया डॉक्टर से सलाह लें।",
	KeyDiagnosis:     "आपके लक्षणों (%s) के आधार पर, आपको हो सकता है: %s।\n\nसुझाई गई दवाइयाँ:\n%s\n\nयह सामान्य जानकारी है, चिकित्सीय निदान नहीं। कृपया डॉक्टर से सलाह लें।",
	KeyAdvice:        "देखभाल सलाह:\n%s",
	KeyDailyLimit:    "आपकी दैनिक चैट सीमा (%d चैट) पूरी हो गई है। कृपया अपना प्लान अपग्रेड करें या कल फिर कोशिश करें।",
	KeyResponseLimit: "इस चैट की उत्तर सीमा (%d उत्तर) पूरी हो गई है। कृपया नई चैट शुरू करें।",
	KeyUnavailable:   "मैं अभी अस्थायी रूप से अनुपलब्ध हूँ। कृपया थोड़ी देर में फिर कोशिश करें।",
	KeyBadLanguage:   "यह भाषा आपके वर्तमान प्लान में उपलब्ध नहीं है। कृपया भाषा बदलें या प्लान अपग्रेड करें।",
}

var spanish = map[Key]string{
	KeyWelcome:       "¡Hola! Soy tu asistente de salud. Cuéntame tus síntomas e intentaré ayudarte.",
	KeyNoSymptoms:    "No reconocí ningún síntoma. ¿Podrías describir cómo te sientes, por ejemplo \"tengo fiebre y dolor de cabeza\"?",
	KeyMoreSymptoms:  "He anotado: %s. ¿Podrías contarme algún otro síntoma para precisar más?",
	KeySymptomsNoted: "He anotado tus síntomas (%s) pero no coinciden con ninguna condición que conozca. Por favor consulta a un profesional de salud.",
	KeyDiagnosis:     "Según tus síntomas (%s), podrías tener: %s.\n\nMedicamentos recomendados:\n%s\n\nEsto es orientación general, no un diagnóstico médico. Consulta a un médico.",
	KeyAdvice:        "Consejos de cuidado:\n%s",
	KeyDailyLimit:    "Has alcanzado tu límite diario de chats (%d chats). Mejora tu plan o inténtalo mañana.",
	KeyResponseLimit: "Has alcanzado el límite de respuestas de este chat (%d respuestas). Inicia un chat nuevo.",
	KeyUnavailable:   "No estoy disponible temporalmente. Inténtalo de nuevo en un momento.",
	KeyBadLanguage:   "Ese idioma no está disponible en tu plan actual. Cambia de idioma o mejora tu plan.",
}

var byLanguage = map[string]map[Key]string{
	"en": english,
	"hi": hindi,
	"es": spanish,
}

// Get returns the reply text for a key in the given language, falling back
// to English when the language (or the key in that language) has no text.
func Get(language string, key Key) string {
	if texts, ok := byLanguage[language]; ok {
		if text, ok := texts[key]; ok {
			return text
		}
	}
	return english[key]
}
