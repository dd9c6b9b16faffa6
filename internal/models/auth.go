package models

type SignupRequest struct {
	Username        string `json:"username" validate:"required,max=20,alphanum"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Mobile          string `json:"mobile"`
}

// SigninRequest covers both password and OTP sign-in; AuthType selects the
// flow and defaults to "email".
type SigninRequest struct {
	AuthType string `json:"auth_type"`
	Username string `json:"username"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

type OTPRequest struct {
	Mobile string `json:"mobile"`
}

type OTPVerifyRequest struct {
	Mobile   string `json:"mobile"`
	OTP      string `json:"otp"`
	Username string `json:"username"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is the outcome of a successful authentication event.
type Session struct {
	User   *User
	Tokens TokenPair
}

// OTPDispatch describes where a passcode was sent.
type OTPDispatch struct {
	Mobile   string `json:"mobile"`
	Username string `json:"username"`
}

type SessionResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Tokens  *TokenPair `json:"tokens,omitempty"`
}

type OTPResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Mobile   string `json:"mobile"`
	Username string `json:"username"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
