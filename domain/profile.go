package domain

// ProfileField declares one user attribute that clients may change through the profile endpoint.
type ProfileField struct {
	Rule  string
	apply func(u *User, value string)
}

// ProfileFields is the complete set of client-editable profile attributes, keyed by the
// name used on the wire. Anything else in an update request is rejected.
var ProfileFields = map[string]ProfileField{
	"username": {
		Rule:  "min=3,max=32,username",
		apply: func(u *User, v string) { u.Username = v },
	},
	"email": {
		Rule:  "email,max=254",
		apply: func(u *User, v string) { u.Email = v },
	},
	"bio": {
		Rule:  "max=500",
		apply: func(u *User, v string) { u.Bio = v },
	},
	"phoneNumber": {
		Rule:  "phone",
		apply: func(u *User, v string) { u.PhoneNumber = v },
	},
}

// ProfileUpdate is a validated set of profile changes.
type ProfileUpdate struct {
	Fields    map[string]string
	AvatarURL string
}

// ParseProfileUpdate validates raw input against ProfileFields. Empty values are skipped
// and unknown keys fail validation.
func ParseProfileUpdate(input map[string]string) (ProfileUpdate, error) {
	update := ProfileUpdate{Fields: make(map[string]string, len(input))}
	problems := make(map[string]string)

	for key, value := range input {
		field, ok := ProfileFields[key]
		if !ok {
			problems[key] = "is not an editable profile field"
			continue
		}
		if value == "" {
			continue
		}
		if msg, ok := validateValue(value, field.Rule); !ok {
			problems[key] = msg
			continue
		}
		update.Fields[key] = value
	}

	if len(problems) > 0 {
		return ProfileUpdate{}, NewValidationError(problems)
	}
	return update, nil
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return len(p.Fields) == 0 && p.AvatarURL == ""
}

// Apply writes the update onto u.
func (p ProfileUpdate) Apply(u *User) {
	for key, value := range p.Fields {
		if field, ok := ProfileFields[key]; ok {
			field.apply(u, value)
		}
	}
	if p.AvatarURL != "" {
		u.Avatar = p.AvatarURL
	}
}
