package entity

import "time"

// AdminUser is an operator account for the admin HTTP surface (spec.md §6).
// PasswordHash is a bcrypt hash; never serialized back to clients.
type AdminUser struct {
	Id           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Session is a server-side record backing the admin login cookie.
type Session struct {
	Id        string
	UserId    string
	ExpiresAt time.Time
}

// Setting is one key/value row in the settings table, used for the
// support_ai_* configuration consumed by the Support Chat endpoint (C9).
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

const (
	SettingSupportAIURL    = "support_ai_url"
	SettingSupportAIKey    = "support_ai_key"
	SettingSupportAIModel  = "support_ai_model"
	SettingSupportAIPrompt = "support_ai_prompt"
)
