package dto

// RegisterRequest is the student self-registration payload.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	RegNumber   string `json:"reg_number" validate:"required,reg_number"`
	Email       string `json:"email" validate:"required,gau_email"`
	Department  string `json:"department" validate:"required,min=2,max=100"`
	Password    string `json:"password" validate:"required,strong_password"`
	Course      string `json:"course" validate:"omitempty,max=200"`
	YearOfStudy string `json:"year_of_study" validate:"omitempty,year_of_study"`
	Phone       string `json:"phone" validate:"omitempty,ke_phone"`
	Address     string `json:"address" validate:"omitempty,max=500"`
}

// RegisterResponse returns the created account and its application.
type RegisterResponse struct {
	User    AccountResponse     `json:"user"`
	Profile ApplicationResponse `json:"profile"`
}

// LoginRequest authenticates by registration number.
type LoginRequest struct {
	RegNumber string `json:"reg_number" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// ClientMeta describes where a request came from.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         AccountResponse `json:"user"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// VerifyResponse describes the owner of a valid token.
type VerifyResponse struct {
	User AccountResponse `json:"user"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password,nefield=CurrentPassword"`
}

// ForgotPasswordRequest asks for reset instructions.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateStaffRequest is used by administrators to create staff or admin accounts.
type CreateStaffRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	RegNumber  string `json:"reg_number" validate:"required,reg_number"`
	Email      string `json:"email" validate:"required,gau_email"`
	Password   string `json:"password" validate:"required,strong_password"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Role       string `json:"role" validate:"omitempty,oneof=admin staff"`
}
