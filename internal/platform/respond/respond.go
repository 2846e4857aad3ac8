// Package respond renders RFC 9457 problem documents for the router and for huma.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/integra/advisor-profile/internal/platform/logging"
)

const (
	msgNotFound          = "resource not found"
	msgInternalServerErr = "internal server error"
	msgInvalidInput      = "Invalid input."

	// SchemaPath is where huma serves the problem document schema.
	SchemaPath = "/schemas/Problem.json"
)

// Problem is the error body for every failed request. Fields is populated for
// validation failures and keyed by the request field name.
type Problem struct {
	huma.ErrorModel
	Fields map[string][]string `json:"fields,omitempty" doc:"Validation messages keyed by field name"`
}

type linkedProblem struct {
	Schema string `json:"$schema,omitempty"`
	Problem
}

var installOnce sync.Once

// Install makes huma produce Problem bodies and log failures with the request logger.
func Install() {
	installOnce.Do(func() {
		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			return newProblem(context.Background(), status, msg, errs...)
		}
		huma.NewErrorWithContext = func(hctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
			ctx := context.Background()
			if hctx != nil {
				ctx = hctx.Context()
			}
			return newProblem(ctx, status, msg, errs...)
		}
	})
}

// Error builds a logged problem for handlers that need a status other than the
// huma helpers offer.
func Error(ctx context.Context, status int, msg string, errs ...error) huma.StatusError {
	return newProblem(ctx, status, msg, errs...)
}

// FieldErrors builds a 400 problem carrying per-field messages.
func FieldErrors(ctx context.Context, fields map[string][]string) huma.StatusError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &Problem{
		ErrorModel: huma.ErrorModel{
			Title:  http.StatusText(http.StatusBadRequest),
			Status: http.StatusBadRequest,
			Detail: msgInvalidInput,
		},
		Fields: fields,
	}
	for _, name := range names {
		for _, msg := range fields[name] {
			p.Errors = append(p.Errors, &huma.ErrorDetail{
				Message:  msg,
				Location: "body." + name,
			})
		}
	}
	logging.LogWarn(ctx, msgInvalidInput,
		zap.Int("status", http.StatusBadRequest),
		zap.Strings("fields", names),
	)
	return p
}

func newProblem(ctx context.Context, status int, msg string, errs ...error) *Problem {
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	p := &Problem{ErrorModel: huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: msg,
	}}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			p.Errors = append(p.Errors, detailer.ErrorDetail())
			continue
		}
		p.Errors = append(p.Errors, &huma.ErrorDetail{Message: err.Error()})
	}
	if status > 0 {
		logWithStatus(ctx, status, msg, errors.Join(errs...))
	}
	return p
}

func logWithStatus(ctx context.Context, status int, msg string, err error) {
	fields := []zap.Field{zap.Int("status", status)}
	switch {
	case status >= http.StatusInternalServerError:
		logging.LogError(ctx, msg, err, fields...)
	case status >= http.StatusBadRequest:
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logging.LogWarn(ctx, msg, fields...)
	}
}

// WriteProblem renders a problem document outside of huma, negotiating JSON or CBOR.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	p := newProblem(r.Context(), status, detail)
	body := linkedProblem{Schema: schemaURL(r), Problem: *p}

	h := w.Header()
	ensureVary(h, "Origin", "Accept")
	h.Set("Link", fmt.Sprintf("<%s>; rel=\"describedBy\"", body.Schema))

	if selectFormat(r.Header.Get("Accept")) {
		out, err := cbor.Marshal(body)
		if err != nil {
			logging.LogError(r.Context(), "encode problem", err)
			http.Error(w, msgInternalServerErr, http.StatusInternalServerError)
			return
		}
		h.Set("Content-Type", "application/problem+cbor")
		w.WriteHeader(status)
		_, _ = w.Write(out)
		return
	}

	h.Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		logging.LogError(r.Context(), "encode problem", err)
	}
}

// WriteRedirect writes a bodiless redirect.
func WriteRedirect(w http.ResponseWriter, r *http.Request, location string, status int) {
	http.Redirect(w, r, location, status)
}

// NotFoundHandler answers unmatched routes with a 404 problem.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler answers with a 405 problem and an Allow header.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	}
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Recoverer turns panics into 500 problems. http.ErrAbortHandler is re-raised
// and nothing is written once the handler has started its response.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				var err error
				switch v := rec.(type) {
				case error:
					err = v
				default:
					err = fmt.Errorf("%v", v)
				}
				logging.LogError(r.Context(), "panic recovered", err, zap.ByteString("stack", debug.Stack()))
				if rw.wroteHeader {
					return
				}
				WriteProblem(rw, r, http.StatusInternalServerError, msgInternalServerErr)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// allowedMethods asks chi which methods match the request path.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}

	routePath := rctx.RoutePath
	if routePath == "" {
		if r.URL.RawPath != "" {
			routePath = r.URL.RawPath
		} else {
			routePath = r.URL.Path
		}
		if routePath == "" {
			routePath = "/"
		}
	}

	methods := []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowed := make([]string, 0, len(methods))
	for _, method := range methods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, routePath) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

func schemaURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + SchemaPath
}

// ensureVary appends values to Vary unless they are already listed.
func ensureVary(h http.Header, values ...string) {
	seen := make(map[string]struct{})
	for _, v := range h.Values("Vary") {
		for part := range strings.SplitSeq(v, ",") {
			seen[strings.ToLower(strings.TrimSpace(part))] = struct{}{}
		}
	}
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		h.Add("Vary", v)
	}
}

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mt := strings.ToLower(strings.TrimSpace(params[0]))
		mr := mediaRange{q: 1.0}
		if typ, sub, ok := strings.Cut(mt, "/"); ok {
			mr.typ, mr.subtype = typ, sub
		} else {
			mr.typ, mr.subtype = mt, "*"
		}
		for _, p := range params[1:] {
			key, val, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(key) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || q < 0 || q > 1 {
				q = 1.0
			}
			mr.q = q
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// specificity ranks how closely a range names application/<subtype>; -1 means no match.
func (mr mediaRange) specificity(subtype string) int {
	switch {
	case mr.typ == "application" && mr.subtype == subtype:
		if strings.Contains(subtype, "+") {
			return 4
		}
		return 3
	case mr.typ == "application" && strings.HasPrefix(mr.subtype, "*+"):
		if _, suffix, ok := strings.Cut(subtype, "+"); ok && "*+"+suffix == mr.subtype {
			return 2
		}
		return -1
	case mr.typ == "application" && mr.subtype == "*":
		return 1
	case mr.typ == "*" && mr.subtype == "*":
		return 0
	}
	return -1
}

// score returns the quality and specificity of the best accepted subtype.
// The most specific matching range decides each subtype's quality.
func score(ranges []mediaRange, subtypes ...string) (float64, int) {
	bestQ, bestSpec := 0.0, -1
	for _, st := range subtypes {
		q, spec := 0.0, -1
		for _, mr := range ranges {
			s := mr.specificity(st)
			if s > spec || (s == spec && mr.q > q) {
				q, spec = mr.q, s
			}
		}
		if spec < 0 || q == 0 {
			continue
		}
		if q > bestQ || (q == bestQ && spec > bestSpec) {
			bestQ, bestSpec = q, spec
		}
	}
	return bestQ, bestSpec
}

// selectFormat reports whether the client prefers CBOR over JSON. Ties go to JSON.
func selectFormat(accept string) bool {
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return false
	}
	cborQ, cborSpec := score(ranges, "cbor", "problem+cbor")
	jsonQ, jsonSpec := score(ranges, "json", "problem+json")
	if cborQ == 0 {
		return false
	}
	return cborQ > jsonQ || (cborQ == jsonQ && cborSpec > jsonSpec)
}
