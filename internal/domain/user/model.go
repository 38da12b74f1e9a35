package user

import "time"

// Profile is users/{uid}, written when a client signs in by phone.
type Profile struct {
	UID          string    `firestore:"uid" json:"uid"`
	PhoneNumber  string    `firestore:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Email        string    `firestore:"email,omitempty" json:"email,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	LastSignInAt time.Time `firestore:"lastSignInAt,omitempty" json:"lastSignInAt,omitempty"`
}
