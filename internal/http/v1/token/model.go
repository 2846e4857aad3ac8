package token

// LoginInput for POST /api/auth/login/.
type LoginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"150" doc:"Login name" example:"jdoe"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"   example:"correct-horse-battery"`
	}
}

// LoginOutput carries a fresh token pair.
type LoginOutput struct {
	Body struct {
		Access  string `json:"access"  doc:"Short-lived bearer token for API calls"`
		Refresh string `json:"refresh" doc:"Long-lived token for /api/auth/refresh/"`
	}
}

// RefreshInput for POST /api/auth/refresh/.
type RefreshInput struct {
	Body struct {
		Refresh string `json:"refresh" minLength:"1" doc:"Refresh token from login"`
	}
}

// RefreshOutput carries a new access token.
type RefreshOutput struct {
	Body struct {
		Access string `json:"access" doc:"Short-lived bearer token for API calls"`
	}
}
