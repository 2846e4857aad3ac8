package profile

// ProfileGetOutput for GET /api/user/profile/.
type ProfileGetOutput struct {
	Body ProfileRecord
}

// ProfileUpdateOutput for PATCH /api/user/profile/.
type ProfileUpdateOutput struct {
	Body ProfileRecord
}
