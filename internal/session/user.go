package session

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User is the account record the backend returns alongside a token.
type User struct {
	ID    string
	Name  string
	Email string
	Tier  string
	// Extra holds fields this client does not interpret so they survive a
	// read-modify-write of the stored record.
	Extra map[string]json.RawMessage
}

// PendingRegistration is staged while a new account waits on checkout. It
// never carries a password.
type PendingRegistration struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Tier     string    `json:"tier,omitempty"`
	StagedAt time.Time `json:"staged_at"`
}

// UnmarshalJSON accepts numeric or string ids.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{}
	for key, value := range raw {
		switch key {
		case "id":
			u.ID = rawScalar(value)
		case "name":
			u.Name = rawScalar(value)
		case "email":
			u.Email = rawScalar(value)
		case "tier":
			u.Tier = rawScalar(value)
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]json.RawMessage)
			}
			u.Extra[key] = value
		}
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+4)
	for key, value := range u.Extra {
		out[key] = value
	}
	if u.ID != "" {
		out["id"] = u.ID
	}
	if u.Name != "" {
		out["name"] = u.Name
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	if u.Tier != "" {
		out["tier"] = u.Tier
	}
	return json.Marshal(out)
}

// rawScalar renders a JSON string, number, or bool as text. Null and
// structured values yield "".
func rawScalar(value json.RawMessage) string {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return ""
	}
	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[', 'n':
		return ""
	default:
		return string(value)
	}
}
