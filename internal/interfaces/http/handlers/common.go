// Package handlers holds the HTTP handlers of the SynthonScope API.  Every
// response is wrapped in common.APIResponse.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// DefaultMaxBodySize caps request bodies when the server config leaves it 0.
const DefaultMaxBodySize int64 = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// requestValidator returns the shared validator.  Field names in messages
// are the JSON names.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// requestIDFrom returns the id placed in the context by the RequestID
// middleware.
func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(common.ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// decodeAndValidate reads a JSON body of at most maxBytes into dst and runs
// the struct tag rules on it.
func decodeAndValidate(r *http.Request, dst interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.InvalidParam("request body is empty")
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed JSON body")
	}
	if dec.More() {
		return errors.InvalidParam("request body holds more than one JSON value")
	}
	if err := requestValidator().Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.ErrCodeValidation, "request validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed on '"+fe.Tag()+"'")
	}
	return errors.New(errors.ErrCodeValidation, "request validation failed").WithDetail(strings.Join(msgs, "; "))
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidParam(name + " must be an integer").WithDetail(v)
	}
	return n, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		// Reaction SMILES carry '>' which must reach clients unescaped.
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(data)
	}
}

// writeSuccess wraps data in a success envelope.
func writeSuccess[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = requestIDFrom(r)
	writeJSON(w, statusCode, resp)
}

// writeAppError maps err to an HTTP status through its code.  Server-side
// failures are masked; client errors keep their message and detail.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := common.NewErrorResponse(string(code), errors.DefaultMessageForCode(code))
	resp.RequestID = requestIDFrom(r)
	if errors.IsClientError(code) {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			resp.Error.Message = appErr.Message
			resp.Error.Detail = appErr.Detail
		}
	}
	writeJSON(w, status, resp)
}

//Personal.AI order the ending
