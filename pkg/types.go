package pkg

import "time"

// RecordType classifies a medical record.  Only three kinds are produced by
// the upload side of the system.
type RecordType string

const (
	RecordLabTest      RecordType = "lab_test"
	RecordPrescription RecordType = "prescription"
	RecordDocument     RecordType = "document"
)

// MedicalRecord is a single patient record as read from the record store.
// TestResults is untrusted: it may be a decoded JSON object, a string that
// holds JSON, an opaque string, or anything else the uploader stored.
type MedicalRecord struct {
	ID               string     `json:"id"`
	PatientID        string     `json:"patient_id"`
	RecordType       RecordType `json:"record_type"`
	Date             time.Time  `json:"date"`
	DoctorName       *string    `json:"doctor_name,omitempty"`
	TestName         *string    `json:"test_name,omitempty"`
	TestCategory     *string    `json:"test_category,omitempty"`
	TestResults      any        `json:"test_results,omitempty"`
	PrescriptionText *string    `json:"prescription_text,omitempty"`
	FilePath         *string    `json:"file_path,omitempty"`
	Status           *string    `json:"status,omitempty"`
	UploadedBy       *string    `json:"uploaded_by,omitempty"`
}

// Role describes who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.  CanonicalContent is written once
// and never changes; DisplayedContent is what the user currently sees in the
// active language.  CanonicalLanguage is the base language except for
// replies whose reverse translation failed.
type Turn struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	CanonicalContent  string    `json:"canonical_content"`
	CanonicalLanguage string    `json:"canonical_language"`
	DisplayedContent  string    `json:"displayed_content"`
	CreatedAt         time.Time `json:"created_at"`
}

// SessionView is a read-only snapshot of a conversation used for rendering.
type SessionView struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id"`
	BaseLanguage   string `json:"base_language"`
	ActiveLanguage string `json:"active_language"`
	IsGenerating   bool   `json:"is_generating"`
	IsTranslating  bool   `json:"is_translating"`
	Turns          []Turn `json:"turns"`
}

// CreateSessionRequest starts a conversation for a patient.
type CreateSessionRequest struct {
	PatientID string `json:"patient_id"`
	Language  string `json:"language,omitempty"`
}

// ChatRequest represents a message sent by the patient.
type ChatRequest struct {
	Content string `json:"content"`
}

// LanguageRequest asks for the conversation to be re-rendered.
type LanguageRequest struct {
	Language string `json:"language"`
}

// LanguagesResponse lists the languages a session can be switched to.
type LanguagesResponse struct {
	Base      string   `json:"base"`
	Supported []string `json:"supported"`
}
