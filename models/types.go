package models

import "time"

// Queue item status constants
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Voter match classifications
const (
	VoterMatchExact   = "exact"
	VoterMatchPartial = "partial"
	VoterMatchNone    = "no_match"
)

// Contact mismatch types and severities
const (
	MismatchContact = "contact"
	MismatchEmail   = "email"
	MismatchBoth    = "both"

	SeverityLow  = "low"
	SeverityHigh = "high"
)

// Review actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Staff roles
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

// Activity log actions
const (
	LogValidate     = "validate"
	LogBulkValidate = "bulk_validate"
	LogReassign     = "reassign"
	LogExport       = "export"
)

// Request types

type IntakeRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Barangay  string `json:"barangay"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	BatchName string `json:"batchName"`
}

type ValidateRequest struct {
	Action            string  `json:"action"`
	Comments          *string `json:"comments"`
	UpdateContactInfo bool    `json:"updateContactInfo"`
}

type BulkValidateRequest struct {
	IDs      []string `json:"ids"`
	Action   string   `json:"action"`
	Comments *string  `json:"comments"`
}

type PersonalData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Barangay  string `json:"barangay"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
}

type ReassignRequest struct {
	CreateNewProfile bool          `json:"createNewProfile"`
	PersonalData     *PersonalData `json:"personalData,omitempty"`
}

type ExportLogRequest struct {
	Format string `json:"format"`
	Tab    string `json:"tab"`
	Count  int    `json:"count"`
}

type CreateStaffRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type VoterRecord struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Barangay  string `json:"barangay"`
}

type ImportVotersRequest struct {
	Voters []VoterRecord `json:"voters"`
}

// Response types

// Envelope is the common response body. Data and Pagination are omitted
// when the endpoint has nothing to report for them.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ValidateResult struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	ProfileID   string    `json:"profileId,omitempty"`
	ValidatedBy string    `json:"validatedBy"`
	ValidatedAt time.Time `json:"validatedAt"`
}

type BulkValidateResult struct {
	Action    string   `json:"action"`
	Processed []string `json:"processed"`
	Skipped   []string `json:"skipped"`
}

type ReassignResult struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ProfileID string `json:"profileId"`
}

type QueueStats struct {
	Pending             int            `json:"pending"`
	CompletedToday      int            `json:"completedToday"`
	RejectedToday       int            `json:"rejectedToday"`
	Total               int            `json:"total"`
	ByVoterMatch        map[string]int `json:"byVoterMatch"`
	WithContactMismatch int            `json:"withContactMismatch"`
}

type CreateStaffResponse struct {
	StaffID  string `json:"staffId"`
	StaffKey string `json:"staffKey"`
}

type ImportVotersResponse struct {
	Imported int `json:"imported"`
}

// Domain types

type ContactInfo struct {
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

type ContactMismatch struct {
	Type     string      `json:"type"`
	Severity string      `json:"severity"`
	Existing ContactInfo `json:"existing"`
	New      ContactInfo `json:"new"`
}

type ValidationQueueItem struct {
	ID              string           `json:"id"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Age             int              `json:"age"`
	Gender          string           `json:"gender"`
	Barangay        string           `json:"barangay"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	Status          string           `json:"status"`
	VoterMatch      string           `json:"voterMatch"`
	ValidationScore float64          `json:"validationScore"`
	ContactMismatch *ContactMismatch `json:"contactMismatch,omitempty"`
	ValidatedBy     *string          `json:"validatedBy,omitempty"`
	ValidatedAt     *time.Time       `json:"validatedAt,omitempty"`
	Comments        *string          `json:"comments,omitempty"`
	BatchID         string           `json:"batchId"`
	BatchName       string           `json:"batchName"`
}

type YouthProfile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Barangay  string    `json:"barangay"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Staff struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staffId"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Error response

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// IsValidStatus reports whether s is a queue status.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusRejected
}

// IsValidVoterMatch reports whether s is a voter match classification.
func IsValidVoterMatch(s string) bool {
	return s == VoterMatchExact || s == VoterMatchPartial || s == VoterMatchNone
}

// IsValidAction reports whether s is a review action.
func IsValidAction(s string) bool {
	return s == ActionApprove || s == ActionReject
}
