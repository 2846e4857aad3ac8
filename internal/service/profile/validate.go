package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Wire names of profile fields.
const (
	FieldID        = "id"
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldAdvisorID = "advisor_id"
	FieldFirmName  = "firm_name"
	FieldRole      = "role"
	FieldBio       = "bio"
	FieldAvatarURL = "avatar_url"
	FieldJoined    = "date_joined"
)

// ReadOnlyFields are exposed on reads and silently dropped from updates.
var ReadOnlyFields = []string{
	FieldID, FieldUsername, FieldEmail, FieldAdvisorID, FieldFirmName, FieldJoined, FieldRole,
}

// EditableFields are the only fields an update may change.
var EditableFields = []string{FieldFirstName, FieldLastName, FieldBio, FieldAvatarURL}

// Length limits in characters.
const (
	MaxNameLength      = 50
	MaxBioLength       = 1024
	MaxFirmNameLength  = 150
	MaxRoleLength      = 100
	MaxAdvisorIDLength = 20
	MaxUsernameLength  = 150
)

// Validation messages.
const (
	msgInvalidString = "Not a valid string."
	msgNull          = "This field may not be null."
	msgBlank         = "This field may not be blank."
	msgNullChars     = "Null characters are not allowed."
	msgInvalidURL    = "Enter a valid URL."
	msgAvatarScheme  = "Avatar URL must start with http:// or https://"
	msgInvalidEmail  = "Enter a valid email address."
	msgRequired      = "This field is required."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// ValidationError maps field names to every message collected for them.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := e.FieldNames()
	return "invalid profile fields: " + strings.Join(names, ", ")
}

// FieldNames returns the failing field names sorted.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (e *ValidationError) add(field string, msgs ...string) {
	if len(msgs) == 0 {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msgs...)
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Payload is a decoded PATCH body. Values keep their wire types so that
// non-string input can be reported per field.
type Payload map[string]any

// Validate checks every field of p, including read-only firm_name, and
// returns the editable delta when all checks pass. Unknown and read-only
// fields never reach the delta.
func (p Payload) Validate() (Delta, error) {
	verr := &ValidationError{}
	var d Delta

	d.FirstName = p.textField(verr, FieldFirstName, MaxNameLength)
	d.LastName = p.textField(verr, FieldLastName, MaxNameLength)
	d.Bio = p.textField(verr, FieldBio, MaxBioLength)
	d.AvatarURL = p.avatarField(verr)

	if raw, ok := p[FieldFirmName]; ok && raw != nil {
		s, isString := raw.(string)
		switch {
		case !isString:
			verr.add(FieldFirmName, msgInvalidString)
		case utf8.RuneCountInString(s) > MaxFirmNameLength:
			verr.add(FieldFirmName, msgMaxLength(MaxFirmNameLength))
		}
	}

	if e := verr.orNil(); e != nil {
		return Delta{}, e
	}
	return d, nil
}

// stringValue trims a present value and reports type and null failures.
func (p Payload) stringValue(verr *ValidationError, field string) (string, bool) {
	raw, ok := p[field]
	if !ok {
		return "", false
	}
	if raw == nil {
		verr.add(field, msgNull)
		return "", false
	}
	s, ok := textOf(raw)
	if !ok {
		verr.add(field, msgInvalidString)
		return "", false
	}
	return strings.TrimSpace(s), true
}

// textOf accepts strings and numbers. Numbers are rendered the way a Python
// client's str() would: integers as digits, floats with at least one decimal.
func textOf(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		lit := v.String()
		if strings.ContainsAny(lit, ".eE") {
			f, err := v.Float64()
			if err != nil {
				return "", false
			}
			return floatText(f), true
		}
		n, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return "", false
		}
		return n.String(), true
	case float64:
		return floatText(v), true
	case float32:
		return floatText(float64(v)), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case big.Int:
		return v.String(), true
	case *big.Int:
		return v.String(), true
	}
	return "", false
}

// floatText formats f like Python's repr: fixed notation for decimal
// exponents in [-4, 16), scientific otherwise.
func floatText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f == 0 || (math.Abs(f) >= 1e-4 && math.Abs(f) < 1e16) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}

func (p Payload) textField(verr *ValidationError, field string, limit int) *string {
	s, ok := p.stringValue(verr, field)
	if !ok {
		return nil
	}
	msgs := checkText(s, limit)
	if len(msgs) > 0 {
		verr.add(field, msgs...)
		return nil
	}
	return &s
}

func (p Payload) avatarField(verr *ValidationError) *string {
	s, ok := p.stringValue(verr, FieldAvatarURL)
	if !ok {
		return nil
	}
	if msgs := checkAvatarURL(s); len(msgs) > 0 {
		verr.add(FieldAvatarURL, msgs...)
		return nil
	}
	return &s
}

func checkText(s string, limit int) []string {
	var msgs []string
	if utf8.RuneCountInString(s) > limit {
		msgs = append(msgs, msgMaxLength(limit))
	}
	if strings.ContainsRune(s, 0) {
		msgs = append(msgs, msgNullChars)
	}
	return msgs
}

// checkAvatarURL requires a well-formed absolute URL first and only then
// narrows the scheme to http or https.
func checkAvatarURL(s string) []string {
	if s == "" {
		return []string{msgBlank}
	}
	var msgs []string
	if strings.ContainsRune(s, 0) {
		msgs = append(msgs, msgNullChars)
	}
	if !wellFormedURL(s) {
		msgs = append(msgs, msgInvalidURL)
	}
	if len(msgs) > 0 {
		return msgs
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return []string{msgAvatarScheme}
	}
	return nil
}

var urlSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

func wellFormedURL(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || !urlSchemes[strings.ToLower(u.Scheme)] || u.Opaque != "" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}
	return true
}

// Validate checks a provisioning request after Normalize.
func (n NewRecord) Validate() error {
	verr := &ValidationError{}

	switch {
	case n.Username == "":
		verr.add(FieldUsername, msgRequired)
	case utf8.RuneCountInString(n.Username) > MaxUsernameLength:
		verr.add(FieldUsername, msgMaxLength(MaxUsernameLength))
	}

	if n.Email == "" {
		verr.add(FieldEmail, msgRequired)
	} else if addr, err := mail.ParseAddress(n.Email); err != nil || addr.Address != n.Email {
		verr.add(FieldEmail, msgInvalidEmail)
	}

	if n.AdvisorID != nil && utf8.RuneCountInString(*n.AdvisorID) > MaxAdvisorIDLength {
		verr.add(FieldAdvisorID, msgMaxLength(MaxAdvisorIDLength))
	}
	verr.add(FieldFirmName, checkText(n.FirmName, MaxFirmNameLength)...)
	verr.add(FieldRole, checkText(n.Role, MaxRoleLength)...)
	verr.add(FieldFirstName, checkText(n.FirstName, MaxNameLength)...)
	verr.add(FieldLastName, checkText(n.LastName, MaxNameLength)...)
	verr.add(FieldBio, checkText(n.Bio, MaxBioLength)...)
	verr.add(FieldAvatarURL, checkAvatarURL(n.AvatarURL)...)

	if e := verr.orNil(); e != nil {
		return e
	}
	return nil
}
