package core

// prompts.go defines the fixed texts used by the chat pipeline.  Keeping
// them in a separate file makes them easy to tweak without touching the rest
// of the code.

const (
	// PersonaPrompt opens every request.  It sets a conversational tone,
	// allows markdown, forbids structured output and asks the assistant to
	// point patients with serious symptoms to a professional.
	PersonaPrompt = "You are a friendly and knowledgeable medical assistant helping a patient understand their health records. " +
		"Speak conversationally, as a caring clinician would, and keep explanations simple. " +
		"You may use markdown formatting such as short lists and bold text. " +
		"Never answer with JSON, code blocks or other structured data; write natural prose. " +
		"When the records or the question suggest serious or worsening symptoms, always recommend that the patient consult a healthcare professional."

	recordsStart    = "=== PATIENT MEDICAL RECORDS ==="
	recordsEnd      = "=== END OF MEDICAL RECORDS ==="
	noRecordsNotice = "No medical records are available for this patient."
)

// Greetings seed every new conversation.  Only some languages have a canned
// text; the others are produced through the translation gateway.
var Greetings = map[string]string{
	"English": "Hello! I'm your health assistant. I can help you understand your lab results, prescriptions and medical documents. What would you like to know?",
	"Hindi":   "नमस्ते! मैं आपका स्वास्थ्य सहायक हूँ। मैं आपकी लैब रिपोर्ट, प्रिस्क्रिप्शन और मेडिकल दस्तावेज़ समझने में आपकी मदद कर सकता हूँ। आप क्या जानना चाहेंगे?",
}

// Apologies replace the assistant reply when the model cannot be reached.
var Apologies = map[string]string{
	"English": "I'm sorry, I couldn't process your question right now. Please try again in a moment.",
	"Hindi":   "क्षमा करें, मैं अभी आपके प्रश्न का उत्तर नहीं दे सका। कृपया थोड़ी देर बाद फिर से प्रयास करें।",
}

// HasCannedText reports whether language has both a canned greeting and a
// canned apology.  Only such languages can serve as the base language.
func HasCannedText(language string) bool {
	_, greeting := Greetings[language]
	_, apology := Apologies[language]
	return greeting && apology
}
