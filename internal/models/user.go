// Package models defines the data types exchanged with the wallet backend
package models

// RegistrationStatus is the KYC state of a wallet user.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "Registered"
	RegistrationVerified   RegistrationStatus = "Verified"
	RegistrationPending    RegistrationStatus = "Pending"
	RegistrationApproved   RegistrationStatus = "Approved"
	RegistrationRejected   RegistrationStatus = "Rejected"
)

// NeedsVerification reports whether the user still has to complete the
// verification flow. Only Approved unlocks the main wallet view.
func (s RegistrationStatus) NeedsVerification() bool {
	return s == RegistrationRegistered || s == RegistrationVerified
}

// Finalized reports whether registration has reached a terminal status and
// the backend no longer needs to recompute it.
func (s RegistrationStatus) Finalized() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// User is a wallet user profile. PaymentMethods is fetched separately and
// merged on before the profile is published.
type User struct {
	Username           string             `json:"username"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	IsAdmin            bool               `json:"is_admin"`
	SelectedFiat       string             `json:"selected_fiat_currency,omitempty"`
	PaymentMethods     []PaymentMethod    `json:"payment_methods,omitempty"`
}

// PaymentMethod is a funding source attached to the user.
type PaymentMethod struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
}
