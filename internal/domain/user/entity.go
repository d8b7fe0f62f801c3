package user

// Record represents a user fetched from the remote directory.
type Record struct {
	ID           string `json:"id" validate:"required"`    // ID is the stable identity key (login.uuid)
	FirstName    string `json:"first_name"`                // FirstName is the given name
	LastName     string `json:"last_name"`                 // LastName is the family name
	Email        string `json:"email" validate:"required"` // Email is the contact address
	ThumbnailURL string `json:"thumbnail_url"`             // ThumbnailURL is display-only
}

// FullName returns the first and last name joined by a space.
func (r Record) FullName() string {
	return r.FirstName + " " + r.LastName
}
