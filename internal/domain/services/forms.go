package services

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegistrationForm is the account sign-up form
type RegistrationForm struct {
	Email       string `json:"email" validate:"required,account_email"`
	Password    string `json:"password" validate:"required,min=8,strong_password"`
	AccountType string `json:"account_type" validate:"required,oneof=builder enterprise research"`
}

// CheckoutForm is the plan purchase form
type CheckoutForm struct {
	Plan       string `json:"plan" validate:"required,oneof=starter growth enterprise"`
	CardNumber string `json:"card_number" validate:"required,card_number"`
	Expiry     string `json:"expiry" validate:"required,card_expiry"`
	CVC        string `json:"cvc" validate:"required,card_cvc"`
	Name       string `json:"name" validate:"required"`
}

// FieldErrors maps a form field to its first failing rule's message
type FieldErrors map[string]string

// Valid reports whether no field failed
func (e FieldErrors) Valid() bool {
	return len(e) == 0
}

// AccountType is a registration option
type AccountType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AccountTypes lists the registration options
func AccountTypes() []AccountType {
	return []AccountType{
		{Value: "builder", Label: "Builder"},
		{Value: "enterprise", Label: "Enterprise"},
		{Value: "research", Label: "Research"},
	}
}

// Plan is a purchasable subscription tier
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Period      string   `json:"period,omitempty"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular,omitempty"`
}

// Plans returns the checkout plan catalog
func Plans() []Plan {
	return []Plan{
		{
			ID:          "starter",
			Name:        "Starter",
			Price:       "$99",
			Period:      "/month",
			Description: "Perfect for individual developers and small teams",
			Features: []string{
				"50k image credits",
				"oculus-1-0125 access",
				"Batch + realtime APIs",
				"Community support",
				"Basic analytics",
			},
		},
		{
			ID:          "growth",
			Name:        "Growth",
			Price:       "$299",
			Period:      "/month",
			Description: "Scale your applications with enhanced resources",
			Features: []string{
				"500k image credits",
				"Both models access",
				"Low-latency streaming",
				"Dedicated support",
				"Advanced analytics",
				"Custom integrations",
			},
			Popular: true,
		},
		{
			ID:          "enterprise",
			Name:        "Enterprise",
			Price:       "Custom",
			Description: "Tailored solutions for large-scale deployments",
			Features: []string{
				"Unlimited usage",
				"Private fine-tuning",
				"On-prem deployment",
				"24/7 white-glove support",
				"SLA guarantees",
				"Priority feature access",
			},
		},
	}
}

var (
	emailPattern  = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
	cardPattern   = regexp.MustCompile(`^\d{13,19}$`)
)

// field -> tag -> message
var fieldMessages = map[string]map[string]string{
	"email": {
		"required":      "Email is required",
		"account_email": "Please enter a valid email address",
	},
	"password": {
		"required":        "Password is required",
		"min":             "Use at least 8 characters",
		"strong_password": "Include an uppercase letter and a number",
	},
	"account_type": {
		"required": "Select an account type",
		"oneof":    "Select an account type",
	},
	"plan": {
		"required": "Select a plan",
		"oneof":    "Select a plan",
	},
	"card_number": {
		"required":    "Card number is required",
		"card_number": "Enter a valid card number",
	},
	"expiry": {
		"required":    "Expiry date is required",
		"card_expiry": "Use the MM/YY format",
	},
	"cvc": {
		"required": "CVC is required",
		"card_cvc": "CVC must be 3 or 4 digits",
	},
	"name": {
		"required": "Cardholder name is required",
	},
}

// FormValidator checks the registration and checkout forms
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator registers the custom form rules
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"account_email":   matches(emailPattern, nil),
		"card_expiry":     matches(expiryPattern, strings.TrimSpace),
		"card_cvc":        matches(cvcPattern, strings.TrimSpace),
		"card_number":     matches(cardPattern, stripCardSeparators),
		"strong_password": strongPassword,
	}
	for tag, fn := range rules {
		// Only fails on duplicate or empty tags, which the literal above rules out
		_ = v.RegisterValidation(tag, fn)
	}

	return &FormValidator{validate: v}
}

// ValidateRegistration returns the per-field errors of a registration form
func (f *FormValidator) ValidateRegistration(form RegistrationForm) FieldErrors {
	return f.fieldErrors(form)
}

// ValidateCheckout returns the per-field errors of a checkout form
func (f *FormValidator) ValidateCheckout(form CheckoutForm) FieldErrors {
	return f.fieldErrors(form)
}

func (f *FormValidator) fieldErrors(form interface{}) FieldErrors {
	errs := FieldErrors{}

	err := f.validate.Struct(form)
	if err == nil {
		return errs
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = err.Error()
		return errs
	}

	for _, fe := range validationErrors {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	return errs
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return field + " is invalid"
}

func matches(pattern *regexp.Regexp, normalize func(string) string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if normalize != nil {
			value = normalize(value)
		}
		return pattern.MatchString(value)
	}
}

func strongPassword(fl validator.FieldLevel) bool {
	var upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r) && r <= unicode.MaxASCII:
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && digit
}

func stripCardSeparators(number string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
}
