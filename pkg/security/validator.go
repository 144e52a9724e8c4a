package security

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MinPasswordLength is the only password rule enforced by the basic server policy.
	MinPasswordLength = 8
)

// Policy names accepted by ParsePolicy.
const (
	PolicyBasic  = "basic"
	PolicyStrict = "strict"
)

// Messages reported by the rule sets.
const (
	MsgInvalidEmail     = "Invalid email address"
	MsgFormInvalidEmail = "Please enter a valid email address"
	MsgPasswordLength   = "Password must be at least 8 characters"
	MsgPasswordUpper    = "Password must contain at least one uppercase letter"
	MsgPasswordLower    = "Password must contain at least one lowercase letter"
	MsgPasswordNumber   = "Password must contain at least one number"
	MsgPasswordSpecial  = "Password must contain at least one special character"
	MsgPasswordMismatch = "Passwords don't match"
)

var (
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)

	validate = validator.New()
)

// Credentials is the input evaluated by a rule set.
type Credentials struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Rule is a single declarative check. Check returns true when the input passes.
type Rule struct {
	Field   string
	Message string
	Check   func(Credentials) bool
}

// Violation describes a failed rule.
type Violation struct {
	Field   string
	Message string
}

// RuleSet is an ordered list of rules evaluated independently.
type RuleSet []Rule

// Evaluate runs every rule and returns all violations in declaration order.
// It never short-circuits, so a caller can report every broken rule at once.
func (rs RuleSet) Evaluate(c Credentials) []Violation {
	var violations []Violation
	for _, r := range rs {
		if !r.Check(c) {
			violations = append(violations, Violation{Field: r.Field, Message: r.Message})
		}
	}
	return violations
}

// ServerRules are enforced by the registration endpoint under the basic policy.
var ServerRules = RuleSet{
	{Field: "email", Message: MsgInvalidEmail, Check: validEmail},
	{Field: "password", Message: MsgPasswordLength, Check: longEnough},
}

// StrictRules extend ServerRules with the character-class requirements.
var StrictRules = RuleSet{
	{Field: "email", Message: MsgInvalidEmail, Check: validEmail},
	{Field: "password", Message: MsgPasswordLength, Check: longEnough},
	{Field: "password", Message: MsgPasswordUpper, Check: matches(upperPattern)},
	{Field: "password", Message: MsgPasswordLower, Check: matches(lowerPattern)},
	{Field: "password", Message: MsgPasswordNumber, Check: matches(digitPattern)},
	{Field: "password", Message: MsgPasswordSpecial, Check: matches(specialPattern)},
}

// FormRules mirror the registration form schema, including the confirmation field.
var FormRules = RuleSet{
	{Field: "email", Message: MsgFormInvalidEmail, Check: validEmail},
	{Field: "confirmPassword", Message: MsgPasswordMismatch, Check: func(c Credentials) bool {
		return c.Password == c.ConfirmPassword
	}},
	{Field: "password", Message: MsgPasswordLength, Check: longEnough},
	{Field: "password", Message: MsgPasswordUpper, Check: matches(upperPattern)},
	{Field: "password", Message: MsgPasswordLower, Check: matches(lowerPattern)},
	{Field: "password", Message: MsgPasswordNumber, Check: matches(digitPattern)},
	{Field: "password", Message: MsgPasswordSpecial, Check: matches(specialPattern)},
}

// ParsePolicy returns the server rule set for a policy name.
// Unknown names fall back to the basic policy.
func ParsePolicy(name string) RuleSet {
	if name == PolicyStrict {
		return StrictRules
	}
	return ServerRules
}

func validEmail(c Credentials) bool {
	return validate.Var(c.Email, "required,email") == nil
}

func longEnough(c Credentials) bool {
	return utf8.RuneCountInString(c.Password) >= MinPasswordLength
}

func matches(p *regexp.Regexp) func(Credentials) bool {
	return func(c Credentials) bool {
		return p.MatchString(c.Password)
	}
}
