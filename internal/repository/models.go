package repository

import "time"

// User represents a user account in the database
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Phone        *string    `db:"phone"`
	PasswordHash string     `db:"password_hash"`
	FirstName    *string    `db:"first_name"`
	LastName     *string    `db:"last_name"`
	CreatedAt    *time.Time `db:"created_at"`
}

// TableName returns the users table name
func (User) TableName() string { return "users" }

// UserProfile holds the optional profile record owned by a user
type UserProfile struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	BirthDate *time.Time `db:"birth_date"`
	AvatarURL *string    `db:"avatar_url"`
	Address   *string    `db:"address"`
	CreatedAt *time.Time `db:"created_at"`
}

// TableName returns the user_profiles table name
func (UserProfile) TableName() string { return "user_profiles" }

// LoginAttempt is an append-only audit row recorded on every login call,
// successful or not. UserID is nil when the attempted email is unknown.
type LoginAttempt struct {
	ID        string     `db:"id"`
	UserID    *string    `db:"user_id"`
	Email     *string    `db:"email"`
	IPAddress *string    `db:"ip_address"`
	Success   bool       `db:"success"`
	Timestamp *time.Time `db:"timestamp"`
}

// TableName returns the login_attempts table name
func (LoginAttempt) TableName() string { return "login_attempts" }

// Election represents an election in the database
type Election struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	StartDate   time.Time  `db:"start_date"`
	EndDate     time.Time  `db:"end_date"`
	IsPublic    bool       `db:"is_public"`
	CreatedAt   *time.Time `db:"created_at"`
}

// TableName returns the elections table name
func (Election) TableName() string { return "elections" }

// Candidate represents a candidate standing in an election
type Candidate struct {
	ID          string  `db:"id"`
	ElectionID  string  `db:"election_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
}

// TableName returns the candidates table name
func (Candidate) TableName() string { return "candidates" }

// ElectionSetting holds the per-election voting rules
type ElectionSetting struct {
	ID            string `db:"id"`
	ElectionID    string `db:"election_id"`
	AllowRevoting bool   `db:"allow_revoting"`
	MaxVotes      int    `db:"max_votes"`
	RequireAuth   bool   `db:"require_auth"`
}

// TableName returns the election_settings table name
func (ElectionSetting) TableName() string { return "election_settings" }

// Vote references an election, a candidate, and the voting user. The voter
// owns the row for update/delete purposes; ownership is enforced at the
// service, not the database.
type Vote struct {
	ID          string     `db:"id"`
	ElectionID  string     `db:"election_id"`
	VoterID     string     `db:"voter_id"`
	CandidateID string     `db:"candidate_id"`
	CreatedAt   *time.Time `db:"created_at"`
}

// TableName returns the votes table name
func (Vote) TableName() string { return "votes" }

// Attachment is a stored file reference tied to an election or candidate
type Attachment struct {
	ID          string     `db:"id"`
	UserID      *string    `db:"user_id"`
	ElectionID  *string    `db:"election_id"`
	CandidateID *string    `db:"candidate_id"`
	FileURL     string     `db:"file_url"`
	UploadedAt  *time.Time `db:"uploaded_at"`
}

// TableName returns the attachments table name
func (Attachment) TableName() string { return "attachments" }

// Notification is a message shown to a user
type Notification struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Message   string     `db:"message"`
	IsRead    bool       `db:"is_read"`
	CreatedAt *time.Time `db:"created_at"`
}

// TableName returns the notifications table name
func (Notification) TableName() string { return "notifications" }

// AuditLog is an append-only record of a mutating action
type AuditLog struct {
	ID         string     `db:"id"`
	UserID     *string    `db:"user_id"`
	Action     string     `db:"action"`
	EntityType *string    `db:"entity_type"`
	EntityID   *string    `db:"entity_id"`
	Timestamp  *time.Time `db:"timestamp"`
}

// TableName returns the audit_logs table name
func (AuditLog) TableName() string { return "audit_logs" }

// PasswordResetToken is a single-use token for password recovery
type PasswordResetToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt *time.Time `db:"created_at"`
}

// TableName returns the password_reset_tokens table name
func (PasswordResetToken) TableName() string { return "password_reset_tokens" }
