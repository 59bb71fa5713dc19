package navigation

import (
	"strings"

	"github.com/frahmantamala/employee-console/internal/access"
)

const (
	NoToolsMessage = "No tools found"
	NoToolsHint    = "Try adjusting your search query or browse all available tools"
	ToolsSubtitle  = "Your productivity tools are ready to use"
)

// Page is one console screen and what the gate asks of the user before showing it.
type Page struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Public   bool     `json:"public"`
	Required []string `json:"required,omitempty"`
}

var Pages = []Page{
	{Path: "/", Name: "Login", Public: true},
	{Path: "/profile", Name: "Profile"},
	{Path: "/home", Name: "Home"},
	{Path: "/pdf-tools", Name: "Design PDF Tools"},
	{Path: "/bom-creator", Name: "BOM Creator"},
	{Path: "/employees", Name: "Employees", Required: []string{"Admin", "Marketing"}},
}

// Lookup returns the page registered for path, or false for an unknown path.
func Lookup(path string) (Page, bool) {
	for _, p := range Pages {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// CanOpen applies the access gate to a page.
func CanOpen(p Page, hasSession bool, userAccess string) bool {
	if p.Public {
		return true
	}
	return access.Allow(hasSession, userAccess, p.Required...)
}

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Menu is the side navigation for a user: Profile always, Employees for Marketing or Admin access.
func Menu(userAccess string) []MenuItem {
	items := []MenuItem{{Label: "Profile", Path: "/profile"}}
	if strings.Contains(userAccess, "Marketing") || strings.Contains(userAccess, "Admin") {
		items = append(items, MenuItem{Label: "Employees", Path: "/employees"})
	}
	return items
}

type Tool struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Route       string `json:"route"`
	Category    string `json:"category"`
	IsNew       bool   `json:"isNew,omitempty"`
	IsPopular   bool   `json:"isPopular,omitempty"`
}

var Tools = []Tool{
	{
		ID:          "1",
		Title:       "BOM Creator",
		Description: "Create and manage Bill of Materials with automated calculations",
		Route:       "/bom-creator",
		Category:    "Production",
		IsPopular:   true,
	},
	{
		ID:          "2",
		Title:       "Design PDF Tools",
		Description: "Convert, merge, and optimize PDF documents for technical designs",
		Route:       "/pdf-tools",
		Category:    "Documentation",
		IsNew:       true,
	},
}

// SearchTools matches query case-insensitively against title, description and category.
// An empty query returns every tool.
func SearchTools(query string) []Tool {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Tool, 0, len(Tools))
	for _, t := range Tools {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, t)
		}
	}
	return out
}

func ToolByRoute(route string) (Tool, bool) {
	for _, t := range Tools {
		if t.Route == route {
			return t, true
		}
	}
	return Tool{}, false
}

type Home struct {
	Greeting     string     `json:"greeting"`
	Subtitle     string     `json:"subtitle"`
	Menu         []MenuItem `json:"menu"`
	Tools        []Tool     `json:"tools"`
	EmptyMessage string     `json:"empty_message,omitempty"`
	EmptyHint    string     `json:"empty_hint,omitempty"`
}

func BuildHome(name, userAccess, query string) Home {
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	h := Home{
		Greeting: "Welcome back, " + name + "!",
		Subtitle: ToolsSubtitle,
		Menu:     Menu(userAccess),
		Tools:    SearchTools(query),
	}
	if len(h.Tools) == 0 {
		h.EmptyMessage = NoToolsMessage
		h.EmptyHint = NoToolsHint
	}
	return h
}
