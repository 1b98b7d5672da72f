package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return hasLetterAndDigit(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

func hasLetterAndDigit(value string) bool {
	var letter, digit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// Struct runs the tag rules of data and returns field-level messages keyed by
// JSON field name, or nil when data is valid.
func Struct(data any) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = getErrorMessage(fieldErr)
		}
		return fields
	}

	fields["_"] = err.Error()
	return fields
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Minimum length is %s", err.Param())
		}
		return fmt.Sprintf("Minimum value is %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Maximum length is %s", err.Param())
		}
		return fmt.Sprintf("Maximum value is %s", err.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", err.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "username":
		return "May only contain letters, digits, underscores and dots"
	case "password":
		return "Must contain at least one letter and one digit"
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}

type roleField struct {
	role     model.Role
	name     string
	required bool
	present  func(req model.RegisterRequest) bool
}

var roleFields = []roleField{
	{role: model.RoleBuyer, name: "weight", present: func(req model.RegisterRequest) bool { return req.Weight != nil }},
	{role: model.RoleBuyer, name: "height", present: func(req model.RegisterRequest) bool { return req.Height != nil }},
	{role: model.RoleShipper, name: "vehicle_plate", required: true, present: func(req model.RegisterRequest) bool { return strings.TrimSpace(req.VehiclePlate) != "" }},
	{role: model.RoleShipper, name: "vehicle_type", present: func(req model.RegisterRequest) bool { return req.VehicleType != nil }},
	{role: model.RoleStorefront, name: "storefront_name", required: true, present: func(req model.RegisterRequest) bool { return strings.TrimSpace(req.StorefrontName) != "" }},
	{role: model.RoleStorefront, name: "market_code", required: true, present: func(req model.RegisterRequest) bool { return strings.TrimSpace(req.MarketCode) != "" }},
	{role: model.RoleStorefront, name: "location", required: true, present: func(req model.RegisterRequest) bool { return strings.TrimSpace(req.Location) != "" }},
	{role: model.RoleStorefront, name: "manager_code", present: func(req model.RegisterRequest) bool { return req.ManagerCode != nil }},
}

// Register checks a registration request in a fixed order: role, role-specific
// presence, then field formats. It returns the parsed role on success.
func Register(req model.RegisterRequest) (model.Role, *apierror.APIError) {
	role, ok := model.ParseRole(req.Role)
	if !ok || !role.SelfRegistrable() {
		return "", apierror.Validation(apierror.CodeRoleInvalid, "role is invalid", map[string]string{
			"role": "Must be one of: buyer, shipper, storefront",
		})
	}

	missing := make(map[string]string)
	foreign := make(map[string]string)
	for _, field := range roleFields {
		present := field.present(req)
		switch {
		case field.role == role && field.required && !present:
			missing[field.name] = "This field is required"
		case field.role != role && present:
			foreign[field.name] = fmt.Sprintf("Not allowed for role %s", role)
		}
	}

	if len(missing) > 0 {
		return "", apierror.Validation(apierror.CodeMissingField, "required fields are missing", missing)
	}
	if len(foreign) > 0 {
		return "", apierror.Validation(apierror.CodeValidation, "fields do not belong to the selected role", foreign)
	}

	if fields := Struct(req); fields != nil {
		return "", apierror.Validation(apierror.CodeValidation, "request validation failed", fields)
	}

	return role, nil
}

func Login(req model.LoginRequest) *apierror.APIError {
	if fields := Struct(req); fields != nil {
		return apierror.Validation(apierror.CodeValidation, "request validation failed", fields)
	}
	return nil
}
