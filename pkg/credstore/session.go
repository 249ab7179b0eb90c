package credstore

// Storage keys for the six session fields. They match the key names the
// dashboard has always written, so a namespace migrated from another client
// reads back unchanged.
const (
	FieldToken        = "token"
	FieldRefreshToken = "refreshToken"
	FieldRole         = "role"
	FieldUserID       = "userId"
	FieldUsername     = "username"
	FieldFCMToken     = "fcmToken"
)

// Fields lists every key a Session occupies in a backend.
var Fields = []string{
	FieldToken,
	FieldRefreshToken,
	FieldRole,
	FieldUserID,
	FieldUsername,
	FieldFCMToken,
}

// Session is the signed-in operator's credential set.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         string
	UserID       string
	Username     string
	FCMToken     string
}

// IsZero reports whether no field is set.
func (s Session) IsZero() bool {
	return s == Session{}
}

// toFields flattens the session into key/value pairs, omitting empty fields.
func (s Session) toFields() map[string]string {
	all := map[string]string{
		FieldToken:        s.AccessToken,
		FieldRefreshToken: s.RefreshToken,
		FieldRole:         s.Role,
		FieldUserID:       s.UserID,
		FieldUsername:     s.Username,
		FieldFCMToken:     s.FCMToken,
	}
	for k, v := range all {
		if v == "" {
			delete(all, k)
		}
	}
	return all
}

func sessionFromFields(fields map[string]string) Session {
	return Session{
		AccessToken:  fields[FieldToken],
		RefreshToken: fields[FieldRefreshToken],
		Role:         fields[FieldRole],
		UserID:       fields[FieldUserID],
		Username:     fields[FieldUsername],
		FCMToken:     fields[FieldFCMToken],
	}
}
