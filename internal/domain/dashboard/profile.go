package dashboard

import (
	"bytes"
	"encoding/json"

	"clinic/internal/platform/clinicapi"
)

// DefaultInitials is shown in the avatar slot when the employee has no photo.
const DefaultInitials = "MS"

var hiddenProfileKeys = map[string]struct{}{
	"_id":      {},
	"__v":      {},
	"images":   {},
	"password": {},
	"login":    {},
}

var profileLabels = map[string]string{
	"name":     "Ism",
	"position": "Lavozim",
	"age":      "Yosh",
	"workTime": "Ish vaqti",
	"phone":    "Telefon",
}

type ProfileField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Profile struct {
	Name      string         `json:"name"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	Initials  string         `json:"initials,omitempty"`
	Fields    []ProfileField `json:"fields"`
}

// BuildProfile turns the cached employee record into the profile card.
// Object, array and null members are skipped, as are ids and credentials.
// imageURL maps the images member to a fetchable URL.
func BuildProfile(e clinicapi.Employee, imageURL func(string) string) Profile {
	p := Profile{Name: e.Name(), Fields: make([]ProfileField, 0, len(e.Fields))}
	if e.Images != "" && imageURL != nil {
		p.AvatarURL = imageURL(string(e.Images))
	} else {
		p.Initials = DefaultInitials
	}

	for _, f := range e.Fields {
		if _, hidden := hiddenProfileKeys[f.Key]; hidden {
			continue
		}
		value, ok := scalarText(f.Value)
		if !ok {
			continue
		}
		label := profileLabels[f.Key]
		if label == "" {
			label = f.Key
		}
		p.Fields = append(p.Fields, ProfileField{Key: f.Key, Label: label, Value: value})
	}
	return p
}

func scalarText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return "", false
	}
	var t clinicapi.Text
	if err := json.Unmarshal(trimmed, &t); err != nil {
		return "", false
	}
	return string(t), true
}
