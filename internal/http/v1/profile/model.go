package profile

import (
	"github.com/integra/advisor-profile/internal/platform/timeutil"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
)

// ProfileRecord is the wire view of an advisor profile. Every key is always present.
type ProfileRecord struct {
	ID         string        `json:"id"          readOnly:"true" doc:"Unique identifier"                 example:"9b2f6a52-0c1e-4f6b-9a55-3f0cbb9c1d2e"`
	Username   string        `json:"username"    readOnly:"true" doc:"Login name"                        example:"jdoe"`
	Email      string        `json:"email"       readOnly:"true" doc:"Email address"                     example:"jdoe@example.com"`
	FirstName  string        `json:"first_name"                  doc:"First name"                        example:"John"`
	LastName   string        `json:"last_name"                   doc:"Last name"                         example:"Doe"`
	AdvisorID  *string       `json:"advisor_id"  readOnly:"true" doc:"Regulatory advisor identifier"     example:"ADV-001" nullable:"true"`
	FirmName   string        `json:"firm_name"   readOnly:"true" doc:"Firm the advisor works for"        example:"Integra Wealth"`
	Role       string        `json:"role"        readOnly:"true" doc:"Job title"                         example:"Financial Advisor"`
	Bio        string        `json:"bio"                         doc:"Free-form biography"               example:"CFP with 10 years of experience."`
	AvatarURL  string        `json:"avatar_url"                  doc:"Absolute http(s) URL of the photo" example:"https://ui-avatars.com/api/?name=User"`
	DateJoined timeutil.Time `json:"date_joined" readOnly:"true" doc:"Account creation time (UTC)"       example:"2024-01-15T10:30:00.000Z"`
}

// ProfilePatch documents the editable fields accepted by PATCH. The body is
// decoded by hand so that absent, null and non-string values can be told apart.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty" maxLength:"50"   doc:"First name"                        example:"Jane"`
	LastName  *string `json:"last_name,omitempty"  maxLength:"50"   doc:"Last name"                         example:"Smith"`
	Bio       *string `json:"bio,omitempty"        maxLength:"1024" doc:"Free-form biography"               example:"Retirement planning specialist."`
	AvatarURL *string `json:"avatar_url,omitempty" format:"uri"     doc:"Absolute http(s) URL of the photo" example:"https://cdn.example.com/jane.png"`
}

func toProfileRecord(r *profilesvc.Record) ProfileRecord {
	var advisorID *string
	if r.AdvisorID != nil {
		id := *r.AdvisorID
		advisorID = &id
	}
	return ProfileRecord{
		ID:         r.ID,
		Username:   r.Username,
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		AdvisorID:  advisorID,
		FirmName:   r.FirmName,
		Role:       r.Role,
		Bio:        r.Bio,
		AvatarURL:  r.AvatarURL,
		DateJoined: timeutil.NewTime(r.CreatedAt),
	}
}
