package employee

import (
	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/validation"
)

const (
	msgPassportIncomplete  = "If any passport field is filled, all passport fields must be filled"
	msgPassportBeforeVisa  = "Complete passport information is required before adding visa details"
	msgAlternateEmailSame  = "Alternate email cannot be the same as primary email"
	msgCurrentLocation     = "Current location is required"
	msgVisaExpiryRequired  = "Visa expiry date is required"
	msgVisaCountryRequired = "At least one country must be selected"
	msgPassportNumber      = "Passport number is required"
	msgPassportIssueDate   = "Issue date is required"
	msgPassportExpiryDate  = "Expiry date is required"
)

func createSchema(u User) *validation.ValidationBuilder {
	v := validation.NewValidator()
	v.Field("code", u.Code).Required()
	v.Field("name", u.Name).Required()
	v.Field("branch", u.Branch).Required()
	v.Field("department", u.Department).Required()
	v.Field("designation", u.Designation).Required()
	v.Field("access", u.Access).Required()
	v.Field("email", u.Email).Required().Email()
	v.Field("curr_location", u.CurrLocation).RequiredMessage(msgCurrentLocation)
	v.Field("alternateEmail", u.AlternateEmail).NotEqual(u.Email, msgAlternateEmailSame)

	var p Passport
	if u.Passport != nil {
		p = *u.Passport
	}
	v.AllOrNone("passport", msgPassportIncomplete, p.PassportNumber, p.PassportIssueDate, p.PassportExpiryDate)
	return v
}

// ValidateCreate checks a new employee record before it is sent upstream.
func ValidateCreate(u User) *internal.AppError {
	return createSchema(u).Validate()
}

// CreateErrors is ValidateCreate as a field -> message map.
func CreateErrors(u User) map[string]string {
	return createSchema(u).Errors()
}

// ValidateUpdate applies the creation rules to an edited record.
func ValidateUpdate(u User) *internal.AppError {
	return createSchema(u).Validate()
}

func visaSchema(p *Passport, visa Visa) *validation.ValidationBuilder {
	v := validation.NewValidator()
	v.Require("passport", msgPassportBeforeVisa, p.IsComplete())
	v.Field("visaExpiryDate", visa.VisaExpiryDate).RequiredMessage(msgVisaExpiryRequired)
	v.Field("visaCountry", visa.VisaCountry).MinItems(1, msgVisaCountryRequired)
	return v
}

// ValidateVisa checks a visa entry; without a complete passport only that is reported.
func ValidateVisa(p *Passport, visa Visa) *internal.AppError {
	return visaSchema(p, visa).Validate()
}

func travelSchema(p *Passport) *validation.ValidationBuilder {
	var pp Passport
	if p != nil {
		pp = *p
	}
	v := validation.NewValidator()
	v.Field("passportNumber", pp.PassportNumber).RequiredMessage(msgPassportNumber)
	v.Field("passportIssueDate", pp.PassportIssueDate).RequiredMessage(msgPassportIssueDate)
	v.Field("passportExpiryDate", pp.PassportExpiryDate).RequiredMessage(msgPassportExpiryDate)
	return v
}

// ValidateTravelProfile is the travel-profile save check: every passport field is required
// and each visa must pass ValidateVisa.
func ValidateTravelProfile(p *Passport, visas []Visa) *internal.AppError {
	v := travelSchema(p)
	if err := v.Validate(); err != nil {
		return err
	}
	for _, visa := range visas {
		if err := ValidateVisa(p, visa); err != nil {
			return err
		}
	}
	return nil
}
