package model

type User struct {
	ID                int64    `json:"id"`
	Email             string   `json:"email"`
	FullName          string   `json:"fullName"`
	ProfessionalTitle string   `json:"professionalTitle,omitempty"`
	Company           string   `json:"company,omitempty"`
	Location          string   `json:"location,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	Skills            []string `json:"skills,omitempty"`
}

// RegisterData is the body of POST /auth/register.
type RegisterData struct {
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ProfessionalTitle string `json:"professionalTitle,omitempty"`
	Company           string `json:"company,omitempty"`
}

// Credentials is what the auth endpoints hand back.
type Credentials struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}
