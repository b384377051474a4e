package masking

import "strings"

// baseDenylist is the field-name denylist from §4.9: any config, event,
// or metric field whose name matches one of these (after suffix/prefix
// expansion) is redacted regardless of whether it is also named by a
// component's secret map.
var baseDenylist = []string{
	"password",
	"token",
	"secret",
	"credential",
	"api_key",
	"auth",
	"authorization",
	"private_key",
}

// matchesDenylist reports whether fieldName should be treated as a
// secret-bearing field by name alone. Matching is case-insensitive,
// ignores "_" and "-" separators, and is substring-based, which is what
// gives the denylist its suffix/prefix expansion for free (§4.9):
// "db_password", "password_confirm", "auth_token" and "apiKey" all
// match without enumerating each compound name.
func matchesDenylist(fieldName string) bool {
	strip := strings.NewReplacer("_", "", "-", "")
	lower := strip.Replace(strings.ToLower(fieldName))
	for _, term := range baseDenylist {
		if strings.Contains(lower, strip.Replace(term)) {
			return true
		}
	}
	return false
}
