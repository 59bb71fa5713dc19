package employee

import (
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal/access"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

type Experience struct {
	ProductName string  `json:"product_name"`
	ProductID   string  `json:"product_id,omitempty"`
	Years       float64 `json:"years"`
}

type Passport struct {
	PassportNumber     string `json:"passportNumber"`
	PassportIssueDate  string `json:"passportIssueDate"`
	PassportExpiryDate string `json:"passportExpiryDate"`
}

// Filled counts the non-blank passport fields.
func (p *Passport) Filled() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, v := range []string{p.PassportNumber, p.PassportIssueDate, p.PassportExpiryDate} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func (p *Passport) IsComplete() bool { return p.Filled() == 3 }

func (p *Passport) IsEmpty() bool { return p.Filled() == 0 }

type Visa struct {
	VisaExpiryDate string   `json:"visaExpiryDate"`
	VisaNumber     string   `json:"visaNumber,omitempty"`
	VisaType       string   `json:"visaType,omitempty"`
	VisaCountry    []string `json:"visaCountry"`
	MultipleEntry  bool     `json:"multipleEntry"`
	Applicable     bool     `json:"applicable"`
}

// User is the employee record as the backend returns it. Optional fields are empty strings when absent.
type User struct {
	ID                     string       `json:"id"`
	Code                   string       `json:"code"`
	Name                   string       `json:"name"`
	Grade                  string       `json:"grade,omitempty"`
	Branch                 string       `json:"branch"`
	BirthDate              string       `json:"birthDate,omitempty"`
	Department             string       `json:"department"`
	Designation            string       `json:"designation"`
	Access                 string       `json:"access"`
	JoinDate               string       `json:"joinDate,omitempty"`
	Gender                 Gender       `json:"gender,omitempty"`
	Email                  string       `json:"email"`
	AlternateEmail         string       `json:"alternateEmail,omitempty"`
	PhoneNumber            string       `json:"phoneNumber,omitempty"`
	AlternativePhoneNumber string       `json:"alternativePhoneNumber,omitempty"`
	Experience             []Experience `json:"experience,omitempty"`
	Password               string       `json:"password,omitempty"`
	ProfilePictureURL      string       `json:"profilePictureURL,omitempty"`
	Visa                   []Visa       `json:"visa,omitempty"`
	Passport               *Passport    `json:"passport,omitempty"`
	CurrLocation           string       `json:"curr_location"`
}

func (u *User) ParsedAccess() access.Access {
	return access.Parse(u.Access)
}

// Sanitized drops the password before a record leaves the console.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

type Project struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	StartDate string `json:"start_date"`
	CloseDate string `json:"close_date"`
}

// CompleteDetails is the profile view: the user plus project and travel bookkeeping.
type CompleteDetails struct {
	User
	Status        string    `json:"status,omitempty"`
	CurrProject   string    `json:"curr_project,omitempty"`
	TotalIdleDays int       `json:"totalIdleDays"`
	Projects      []Project `json:"projects,omitempty"`
	TravelDays    int       `json:"travelDays"`
}

type PassportVisa struct {
	Passport *Passport `json:"passport,omitempty"`
	Visa     []Visa    `json:"visa"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend date the way the directory table shows it (dd/mm/yyyy), or N/A.
func FormatDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return "N/A"
	}
	return t.Format("02/01/2006")
}
