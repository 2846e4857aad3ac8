package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Store errors
var (
	ErrNotFound            = errors.New("profile not found")
	ErrConstraintViolation = errors.New("profile uniqueness constraint violated")
)

// Record defaults applied at creation.
const (
	DefaultRole      = "Financial Advisor"
	DefaultAvatarURL = "https://ui-avatars.com/api/?name=User"
)

// now returns the current UTC time at the microsecond precision every store can keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Record is the stored advisor profile. Credentials never live on it.
type Record struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	AdvisorID *string
	FirmName  string
	Role      string
	Bio       string
	AvatarURL string
	CreatedAt time.Time
}

// Clone returns a deep copy so callers never share AdvisorID with a store.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.AdvisorID != nil {
		v := *r.AdvisorID
		c.AdvisorID = &v
	}
	return &c
}

// Delta carries the editable fields of an update. Nil fields are left untouched.
type Delta struct {
	FirstName *string
	LastName  *string
	Bio       *string
	AvatarURL *string
}

// Fields lists the wire names of the fields d will change, in a stable order.
func (d Delta) Fields() []string {
	var out []string
	if d.FirstName != nil {
		out = append(out, FieldFirstName)
	}
	if d.LastName != nil {
		out = append(out, FieldLastName)
	}
	if d.Bio != nil {
		out = append(out, FieldBio)
	}
	if d.AvatarURL != nil {
		out = append(out, FieldAvatarURL)
	}
	return out
}

// Apply writes the non-nil fields of d onto r.
func (d Delta) Apply(r *Record) {
	if d.FirstName != nil {
		r.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		r.LastName = *d.LastName
	}
	if d.Bio != nil {
		r.Bio = *d.Bio
	}
	if d.AvatarURL != nil {
		r.AvatarURL = *d.AvatarURL
	}
}

// NewRecord holds the data for provisioning an advisor.
type NewRecord struct {
	Username     string
	Email        string
	PasswordHash []byte
	AdvisorID    *string
	FirmName     string
	Role         string
	FirstName    string
	LastName     string
	Bio          string
	AvatarURL    string
}

// Normalize trims input, lowercases the email, and fills role and avatar defaults.
func (n NewRecord) Normalize() NewRecord {
	n.Username = strings.TrimSpace(n.Username)
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Bio = strings.TrimSpace(n.Bio)
	n.Role = strings.TrimSpace(n.Role)
	if n.Role == "" {
		n.Role = DefaultRole
	}
	n.AvatarURL = strings.TrimSpace(n.AvatarURL)
	if n.AvatarURL == "" {
		n.AvatarURL = DefaultAvatarURL
	}
	if n.AdvisorID != nil {
		v := strings.TrimSpace(*n.AdvisorID)
		if v == "" {
			n.AdvisorID = nil
		} else {
			n.AdvisorID = &v
		}
	}
	return n
}

// Record builds the stored representation of n with the given identity.
func (n NewRecord) Record(id string, createdAt time.Time) *Record {
	return &Record{
		ID:        id,
		Username:  n.Username,
		Email:     n.Email,
		FirstName: n.FirstName,
		LastName:  n.LastName,
		AdvisorID: n.AdvisorID,
		FirmName:  n.FirmName,
		Role:      n.Role,
		Bio:       n.Bio,
		AvatarURL: n.AvatarURL,
		CreatedAt: createdAt,
	}
}

// Credentials is the login material kept next to a record.
type Credentials struct {
	ID           string
	Username     string
	PasswordHash []byte
}

// Store reads and partially updates profile records.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	// Update applies only the non-nil fields of delta and returns the record
	// as re-read after the write.
	Update(ctx context.Context, id string, delta Delta) (*Record, error)
}

// Registrar provisions new records. Implementations assign the ID and
// creation time and reject duplicate username, email or advisor ID.
type Registrar interface {
	Create(ctx context.Context, rec NewRecord) (*Record, error)
}

// CredentialStore resolves login credentials by username.
type CredentialStore interface {
	Credentials(ctx context.Context, username string) (Credentials, error)
}

// Repository is implemented by every concrete store.
type Repository interface {
	Store
	Registrar
	CredentialStore
}
