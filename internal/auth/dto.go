package auth

// SignInDTO is the request body shared by the launcher sign-in and the web
// login. Field names follow the GML contract.
type SignInDTO struct {
	Login    string `json:"Login"`
	Password string `json:"Password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// SignInResponse is the success body of both sign-in variants.
type SignInResponse struct {
	Login    string `json:"Login"`
	UserUuid string `json:"UserUuid"`
	Message  string `json:"Message"`
}

// SignInErrorResponse carries the failure message; Next is set only by the
// web login when 2FA setup is pending.
type SignInErrorResponse struct {
	Message string `json:"Message"`
	Next    string `json:"Next,omitempty"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}
