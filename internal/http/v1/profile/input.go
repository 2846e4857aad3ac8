package profile

// ProfileGetInput for GET /api/user/profile/ (no body).
type ProfileGetInput struct{}

// ProfileUpdateInput for PATCH /api/user/profile/.
type ProfileUpdateInput struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte `contentType:"application/json"`
}
