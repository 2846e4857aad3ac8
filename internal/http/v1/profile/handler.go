package profile

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/integra/advisor-profile/internal/platform/auth"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
	"github.com/integra/advisor-profile/internal/platform/respond"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
)

// Path is the single resource this package serves.
const Path = "/api/user/profile/"

// Service is the profile behaviour the handlers need.
type Service interface {
	Retrieve(ctx context.Context, id string) (*profilesvc.Record, error)
	Update(ctx context.Context, id string, payload profilesvc.Payload) (*profilesvc.Record, error)
}

// Register registers the authenticated profile endpoints.
func Register(api huma.API, svc Service) {
	security := []map[string][]string{{auth.SchemeName: {}}}

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        Path,
		Summary:     "Get current advisor's profile",
		Description: "Returns the profile of the authenticated advisor.",
		Tags:        []string{"Profile"},
		Security:    security,
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, _ *ProfileGetInput) (*ProfileGetOutput, error) {
		principal := auth.PrincipalFromContext(ctx)
		if principal == nil {
			return nil, huma.Error401Unauthorized("Authentication credentials were not provided.")
		}
		rec, err := svc.Retrieve(ctx, principal.Subject)
		if err != nil {
			return nil, mapServiceError(ctx, principal.Subject, err)
		}
		return &ProfileGetOutput{Body: toProfileRecord(rec)}, nil
	})

	patchSchema := api.OpenAPI().Components.Schemas.Schema(reflect.TypeFor[ProfilePatch](), true, "ProfilePatch")
	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        Path,
		Summary:     "Update current advisor's profile",
		Description: "Applies the editable fields first_name, last_name, bio and avatar_url. " +
			"Read-only and unknown fields are ignored. Omitted fields are left unchanged.",
		Tags:     []string{"Profile"},
		Security: security,
		RequestBody: &huma.RequestBody{
			Content: map[string]*huma.MediaType{
				"application/json": {Schema: patchSchema},
			},
		},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnsupportedMediaType,
		},
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileUpdateOutput, error) {
		principal := auth.PrincipalFromContext(ctx)
		if principal == nil {
			return nil, huma.Error401Unauthorized("Authentication credentials were not provided.")
		}

		payload, err := decodePayload(input.ContentType, input.RawBody)
		if err != nil {
			return nil, mapDecodeError(ctx, err)
		}

		rec, err := svc.Update(ctx, principal.Subject, payload)
		if err != nil {
			return nil, mapServiceError(ctx, principal.Subject, err)
		}
		return &ProfileUpdateOutput{Body: toProfileRecord(rec)}, nil
	})
}

func mapDecodeError(ctx context.Context, err error) error {
	var notObject *notObjectError
	switch {
	case errors.As(err, &notObject):
		return respond.FieldErrors(ctx, map[string][]string{"non_field_errors": {notObject.Error()}})
	case errors.Is(err, errUnsupportedMediaType):
		return huma.Error415UnsupportedMediaType(err.Error())
	default:
		return huma.Error400BadRequest("Malformed request body.", err)
	}
}

func mapServiceError(ctx context.Context, id string, err error) error {
	var verr *profilesvc.ValidationError
	switch {
	case errors.As(err, &verr):
		return respond.FieldErrors(ctx, verr.Fields)
	case errors.Is(err, profilesvc.ErrNotFound):
		// An authenticated identity without a record means the token and store disagree.
		applog.LogError(ctx, "authenticated principal has no profile", err, zap.String("user_id", id))
		return huma.Error404NotFound("Not found.")
	case errors.Is(err, profilesvc.ErrConstraintViolation):
		return huma.Error409Conflict("profile update conflicts with an existing record")
	default:
		applog.LogError(ctx, "profile operation failed", err, zap.String("user_id", id))
		return huma.Error500InternalServerError("internal server error")
	}
}
