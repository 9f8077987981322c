package model

import "time"

// User represents a user in the system
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"` // Stored in Redis, excluded from SafeUser responses
	Status       string     `json:"status"`        // "active" or "inactive"
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	// Credential is the user's exchange API credential, encrypted at rest.
	// Nil until the user connects an exchange account.
	Credential *ExchangeCredential `json:"exchange_credential,omitempty"`
}

// UserStatus constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// IsActive checks if user is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// HasCredential reports whether the user has a validated exchange
// credential with a linked platform account.
func (u *User) HasCredential() bool {
	return u.Credential != nil && u.Credential.RemoteAccountID != nil
}

// ExchangeCredential holds the user's exchange API credential. Key and
// secret are AES-GCM ciphertexts; cleartext never touches the store.
type ExchangeCredential struct {
	EncryptedKey    string    `json:"encrypted_key"`
	EncryptedSecret string    `json:"encrypted_secret"`
	PermissionTier  string    `json:"permission_tier"`
	RemoteAccountID *int64    `json:"remote_account_id,omitempty"`
	ValidatedAt     time.Time `json:"validated_at"`
}

// SafeUser returns user data safe for API response (no sensitive fields)
type SafeUser struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	HasCredential  bool       `json:"has_credential"`
	PermissionTier string     `json:"permission_tier,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// ToSafeUser converts User to SafeUser
func (u *User) ToSafeUser() *SafeUser {
	safe := &SafeUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Status:        u.Status,
		HasCredential: u.HasCredential(),
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
	if u.Credential != nil {
		safe.PermissionTier = u.Credential.PermissionTier
	}
	return safe
}

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *SafeUser `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Session represents a user session
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
	UserAgent    string    `json:"user_agent"`
	IP           string    `json:"ip"`
}

// CredentialRequest represents the exchange credential connect request
type CredentialRequest struct {
	Key    string `json:"key" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// CredentialResponse represents credential status (never the secret)
type CredentialResponse struct {
	Connected       bool       `json:"connected"`
	PermissionTier  string     `json:"permission_tier,omitempty"`
	RemoteAccountID *int64     `json:"remote_account_id,omitempty"`
	ValidatedAt     *time.Time `json:"validated_at,omitempty"`
}
