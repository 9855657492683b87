package auth

import "strings"

// DefaultAdminEmails is the built-in allow-list used when ADMIN_EMAILS is
// not configured.
var DefaultAdminEmails = []string{
	"owner@barbershop.local",
	"manager@barbershop.local",
}

// AllowList is the fixed set of emails allowed into the admin panel after
// authentication. Matching ignores case and surrounding space.
type AllowList struct {
	emails map[string]struct{}
}

func NewAllowList(emails []string) *AllowList {
	a := &AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			a.emails[e] = struct{}{}
		}
	}
	return a
}

func (a *AllowList) Allowed(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[normalizeEmail(email)]
	return ok
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
