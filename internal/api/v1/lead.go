package v1

import (
	"fmt"
	"strings"
)

// Lead is the contact record captured at the lead-capture step. Created once
// on submission, read-only afterwards; consumed by the checkout formatter.
type Lead struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
}

// Validate enforces the lead-capture form contract: all three fields are
// required. Failures are validation errors, surfaced inline to the visitor.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(l.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(l.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	return nil
}
