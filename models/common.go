package models

// PageData represents common data passed to templates
type PageData struct {
	Title         string
	CurrentPage   string
	Error         string
	User          *User
	CanUpload     bool
	CanViewEvents bool
	Username      string  // login form prefill
	Events        []Event // audit log page
}
