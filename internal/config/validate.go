package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator"
)

// ValidationError carries every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(useJSONFieldNames)
		// Registration only fails on empty tags or nil funcs.
		_ = validate.RegisterValidation("valid_query", isValidQuery)
		_ = validate.RegisterValidation("valid_exts", isValidExtensionList)
	})
	return validate
}

// Validate checks the value ranges of c without touching the filesystem and
// returns one human-readable message per problem.
func (c Config) Validate() []string {
	err := structValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return problems
}

// Check runs Validate and CheckPath and folds the result into a single error.
func (c Config) Check() error {
	problems := c.Validate()
	if err := CheckPath(c.SearchPath); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// CheckPath reports whether the search root exists and is reachable.
func CheckPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("search path is required")
	}
	if strings.Contains(path, "\x00") {
		return errors.New("search path contains a null byte")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("search path %q does not exist", path)
		}
		return fmt.Errorf("search path %q is not accessible: %w", path, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "valid_query":
		return "query must not be empty"
	case "valid_exts":
		return fmt.Sprintf("unsupported file extension; supported: %s", strings.Join(SupportedExtensions, " "))
	case "ltefield":
		return "window_size must not exceed max_window_size"
	case "min":
		if fe.Field() == "extensions" {
			return "at least one file extension is required"
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

func useJSONFieldNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func isValidQuery(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isValidExtensionList(fl validator.FieldLevel) bool {
	field := fl.Field()
	for i := 0; i < field.Len(); i++ {
		if !slices.Contains(SupportedExtensions, field.Index(i).String()) {
			return false
		}
	}
	return true
}
