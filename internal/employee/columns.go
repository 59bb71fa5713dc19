package employee

type Column string

const (
	ColProfilePicture         Column = "profilePictureURL"
	ColName                   Column = "name"
	ColPhoneNumber            Column = "phoneNumber"
	ColAlternativePhoneNumber Column = "alternativePhoneNumber"
	ColGrade                  Column = "grade"
	ColEmail                  Column = "email"
	ColAlternateEmail         Column = "alternateEmail"
	ColCode                   Column = "code"
	ColAccess                 Column = "access"
	ColBranch                 Column = "branch"
	ColDepartment             Column = "department"
	ColDesignation            Column = "designation"
	ColGender                 Column = "gender"
	ColBirthDate              Column = "birthDate"
	ColJoinDate               Column = "joinDate"
	ColExperience             Column = "experience"
	ColCurrLocation           Column = "curr_location"
	ColPassport               Column = "passport"
	ColVisa                   Column = "visa"
)

type ColumnDef struct {
	ID       Column `json:"id"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

// Columns is the table layout in display order.
var Columns = []ColumnDef{
	{ColProfilePicture, "Profile", false},
	{ColName, "Name", true},
	{ColPhoneNumber, "Phone", false},
	{ColAlternativePhoneNumber, "Alternative Phone", false},
	{ColGrade, "Grade", true},
	{ColEmail, "Email", true},
	{ColAlternateEmail, "Alternative Email", true},
	{ColCode, "Code", true},
	{ColAccess, "Access", true},
	{ColBranch, "Branch", true},
	{ColDepartment, "Department", true},
	{ColDesignation, "Designation", true},
	{ColGender, "Gender", false},
	{ColBirthDate, "Birth Date", false},
	{ColJoinDate, "Joining Date", false},
	{ColExperience, "Experience", false},
	{ColCurrLocation, "Location", true},
	{ColPassport, "Passport", false},
	{ColVisa, "Visa", false},
}

func ColumnByID(id Column) (ColumnDef, bool) {
	for _, c := range Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDef{}, false
}

type Preset string

const (
	PresetDefault    Preset = "default"
	PresetPersonal   Preset = "personal"
	PresetEmployment Preset = "employment"
	PresetTravel     Preset = "travel"
)

var presetColumns = map[Preset][]Column{
	PresetDefault: {
		ColProfilePicture, ColName, ColAlternativePhoneNumber, ColGrade, ColAlternateEmail, ColCode,
		ColAccess, ColBranch, ColDepartment, ColDesignation, ColJoinDate, ColExperience, ColCurrLocation,
	},
	PresetPersonal: {
		ColProfilePicture, ColName, ColPhoneNumber, ColAlternativePhoneNumber, ColEmail, ColAlternateEmail,
		ColCode, ColGender, ColBirthDate,
	},
	PresetEmployment: {
		ColProfilePicture, ColName, ColGrade, ColCode, ColAccess, ColBranch, ColDepartment, ColDesignation,
		ColJoinDate, ColExperience, ColCurrLocation,
	},
	PresetTravel: {
		ColProfilePicture, ColName, ColCode, ColPassport, ColVisa,
	},
}

// ColumnVisibility is an independent on/off switch per column. Every column is always present.
type ColumnVisibility map[Column]bool

func DefaultColumns() ColumnVisibility {
	v, _ := PresetColumns(PresetDefault)
	return v
}

func PresetColumns(p Preset) (ColumnVisibility, bool) {
	visible, ok := presetColumns[p]
	if !ok {
		return nil, false
	}
	v := make(ColumnVisibility, len(Columns))
	for _, c := range Columns {
		v[c.ID] = false
	}
	for _, c := range visible {
		v[c] = true
	}
	return v, true
}

// Toggle returns a copy with one column flipped. Unknown columns are ignored.
func (v ColumnVisibility) Toggle(c Column) ColumnVisibility {
	out := v.normalized()
	if _, ok := ColumnByID(c); ok {
		out[c] = !out[c]
	}
	return out
}

// Visible lists the shown columns in table order.
func (v ColumnVisibility) Visible() []ColumnDef {
	out := make([]ColumnDef, 0, len(Columns))
	for _, c := range Columns {
		if v[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// normalized fills in any column missing from a stored map as hidden and drops unknown keys.
func (v ColumnVisibility) normalized() ColumnVisibility {
	out := make(ColumnVisibility, len(Columns))
	for _, c := range Columns {
		out[c.ID] = v[c.ID]
	}
	return out
}
