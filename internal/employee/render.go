package employee

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell renders one table cell as text, the way the directory and its exports show it.
func Cell(u User, c Column) string {
	switch c {
	case ColProfilePicture:
		return u.ProfilePictureURL
	case ColName:
		return u.Name
	case ColPhoneNumber:
		return orNA(u.PhoneNumber)
	case ColAlternativePhoneNumber:
		return orNA(u.AlternativePhoneNumber)
	case ColGrade:
		return orNA(u.Grade)
	case ColEmail:
		return u.Email
	case ColAlternateEmail:
		return orNA(u.AlternateEmail)
	case ColCode:
		return u.Code
	case ColAccess:
		return u.Access
	case ColBranch:
		return u.Branch
	case ColDepartment:
		return u.Department
	case ColDesignation:
		return u.Designation
	case ColGender:
		return orNA(string(u.Gender))
	case ColBirthDate:
		return FormatDate(u.BirthDate)
	case ColJoinDate:
		return FormatDate(u.JoinDate)
	case ColExperience:
		return formatExperience(u.Experience)
	case ColCurrLocation:
		return orNA(u.CurrLocation)
	case ColPassport:
		return formatPassport(u.Passport)
	case ColVisa:
		return formatVisas(u.Visa)
	}
	return ""
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

func formatExperience(exp []Experience) string {
	if len(exp) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(exp))
	for _, e := range exp {
		parts = append(parts, fmt.Sprintf("%s: %s yrs", e.ProductName, strconv.FormatFloat(e.Years, 'f', -1, 64)))
	}
	return strings.Join(parts, ", ")
}

func formatPassport(p *Passport) string {
	if p.IsEmpty() {
		return "N/A"
	}
	return fmt.Sprintf("%s (exp %s)", orNA(p.PassportNumber), FormatDate(p.PassportExpiryDate))
}

func formatVisas(visas []Visa) string {
	if len(visas) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(visas))
	for _, v := range visas {
		entry := "single"
		if v.MultipleEntry {
			entry = "multiple"
		}
		parts = append(parts, fmt.Sprintf("%s (%s entry, exp %s)", strings.Join(v.VisaCountry, "/"), entry, FormatDate(v.VisaExpiryDate)))
	}
	return strings.Join(parts, "; ")
}
