package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/autoperception/dataset-explorer/catalog"
	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/schema"
)

// TranslateValidatorError takes an error from the go-playground validator (internally just a map of errors) and converts it into a string
// which can then be used to create a new error. The purpose of this function is to get around the fact that go-playground
// validator creates errors that are not in a user friendly format.
func TranslateValidatorError(err error, trans ut.Translator) error {
	switch err.(type) {
	case validator.ValidationErrors:
		errs := (err.(validator.ValidationErrors)).Translate(trans)

		vals := make([]string, 0, len(errs))

		for _, value := range errs {
			vals = append(vals, value)
		}

		// map iteration order is random
		sort.Strings(vals)
		return NewBadRequestError(strings.Join(vals, " "))
	default:
		return err
	}
}

// StatusCode maps an error to the http status returned to the client
func StatusCode(err error) int {
	var (
		notFound    *NotFoundError
		badRequest  *BadRequestError
		queryFailed *db.QueryFailedError
	)
	switch {
	case errors.As(err, &notFound),
		errors.Is(err, schema.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &queryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
