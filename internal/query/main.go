package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Defaults for paged listings.
const (
	DefaultPage    = 1
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Define a single validator to do all of the validations for us.
var v = validator.New()

// ValidatedQueryParam extracts a query parameter and validates it.
func ValidatedQueryParam(ctx echo.Context, name, validationTag string) (string, error) {
	value := ctx.QueryParam(name)

	if err := v.Var(value, validationTag); err != nil {
		return "", fmt.Errorf("invalid query parameter: %s", name)
	}

	return value, nil
}

// ValidateBooleanQueryParam extracts a Boolean query parameter and validates it.
func ValidateBooleanQueryParam(ctx echo.Context, name string, defaultValue *bool) (bool, error) {
	errMsg := fmt.Sprintf("invalid query parameter: %s", name)
	value := ctx.QueryParam(name)

	// Assume that the parameter is required if there's no default.
	if defaultValue == nil && value == "" {
		return false, fmt.Errorf("missing required query parameter: %s", name)
	}

	// If no value was provided at this point then the parameter is optional; return the default value.
	if value == "" {
		return *defaultValue, nil
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrap(err, errMsg)
	}
	return result, nil
}

// ValidateIntQueryParam extracts an optional integer query parameter and validates it.
func ValidateIntQueryParam(ctx echo.Context, name string, defaultValue *int, checks ...string) (int, error) {
	errMsg := fmt.Sprintf("invalid query parameter: %s", name)
	value := ctx.QueryParam(name)

	// Assume that the parameter is required if there's no default.
	if defaultValue == nil && value == "" {
		return 0, fmt.Errorf("missing required query parameter: %s", name)
	}

	// If no value was provided at this point then the parameter is optional; return the default value.
	if value == "" {
		return *defaultValue, nil
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrap(err, errMsg)
	}

	// Perform any checks that we're supposed to perform.
	for _, check := range checks {
		if err = v.Var(result, check); err != nil {
			return 0, errors.Wrap(err, errMsg)
		}
	}

	return result, nil
}

// contains returns true if the given slice of strings contains the given string.
func contains(strs []string, str string) bool {
	for _, s := range strs {
		if s == str {
			return true
		}
	}
	return false
}

// ValidateEnumQueryParam extracts the value of an enumeration query parameter. The value will always be converted to
// lower case before validating and returning it.
func ValidateEnumQueryParam(ctx echo.Context, name string, vals []string, defaultValue *string) (string, error) {
	value := strings.ToLower(ctx.QueryParam(name))

	// Assume that the value is required if there's no default.
	if defaultValue == nil && value == "" {
		return "", fmt.Errorf("missing required query parameter: %s", name)
	}

	// If no value was provided at this point then the parameter is optional; return the default value.
	if value == "" {
		return *defaultValue, nil
	}

	if !contains(vals, value) {
		return "", fmt.Errorf("invalid query parameter: %s; valid values: %s", name, strings.Join(vals, ", "))
	}
	return value, nil
}

// ValidatePagination extracts the page and per-page query parameters used by every paged listing.
func ValidatePagination(ctx echo.Context) (int, int, error) {
	defaultPage, defaultPerPage := DefaultPage, DefaultPerPage

	page, err := ValidateIntQueryParam(ctx, "page", &defaultPage, "gte=1")
	if err != nil {
		return 0, 0, err
	}

	perPage, err := ValidateIntQueryParam(ctx, "per-page", &defaultPerPage, "gte=1", fmt.Sprintf("lte=%d", MaxPerPage))
	if err != nil {
		return 0, 0, err
	}

	return page, perPage, nil
}
