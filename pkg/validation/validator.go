package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	// Identities and graph names end up in logs and cross-graph
	// references; keep them to a printable, unambiguous charset.
	identityPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.\-]*$`)

	// MaxIdentityLength bounds node identities and graph names
	MaxIdentityLength = 256
)

func init() {
	validate = validator.New()
	must(validate.RegisterValidation("identity", func(fl validator.FieldLevel) bool {
		return identityOK(fl.Field().String())
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func identityOK(s string) bool {
	return len(s) <= MaxIdentityLength && identityPattern.MatchString(s)
}

// ValidateIdentity checks a single node identity or graph name.
func ValidateIdentity(id string) error {
	if id == "" {
		return errors.New("identity must not be empty")
	}
	if !identityOK(id) {
		return fmt.Errorf("invalid identity %q: must match %s and be at most %d characters",
			id, identityPattern.String(), MaxIdentityLength)
	}
	return nil
}

// ValidateIdentities checks a collection of identities.
func ValidateIdentities(ids []string) error {
	for _, id := range ids {
		if err := ValidateIdentity(id); err != nil {
			return err
		}
	}
	return nil
}

// Struct validates a request struct against its validate tags. The
// custom "identity" tag is available for identity-shaped fields.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: required", fe.Field()))
		case "identity":
			msgs = append(msgs, fmt.Sprintf("%s: invalid identity %q", fe.Field(), fe.Value()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
