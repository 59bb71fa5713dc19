package session

// SidebarPinned keeps the navigation drawer open between visits.
var SidebarPinned = NewKey("sidebarPinned", false)
