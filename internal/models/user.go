package models

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch carries a partial profile update. Nil fields keep their
// current value.
type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
