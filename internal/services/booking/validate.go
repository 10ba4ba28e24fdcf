package booking

import (
	"fmt"
	"regexp"
	"strings"

	"ticket-portal/internal/status"
	"ticket-portal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)

// validateQuantity enforces 1 <= quantity <= min(available, per-contact cap).
func validateQuantity(event *models.Event, category *models.TicketCategory, quantity int) error {
	if category.EventID != "" && event.ID != "" && category.EventID != event.ID {
		return status.Validation("ticketCategoryId", "This ticket category does not belong to the event.")
	}

	available := category.Available()
	if available == 0 {
		return status.Validation("ticketCategoryId", fmt.Sprintf("%s tickets are sold out.", category.Name))
	}

	limit := available
	if perContact, ok := event.TicketCap(); ok && perContact < limit {
		limit = perContact
	}

	switch {
	case quantity < 1:
		return status.Validation("quantity", "Select at least one ticket.")
	case quantity > limit && limit == available:
		return status.Validation("quantity", fmt.Sprintf("Only %d tickets available.", available))
	case quantity > limit:
		return status.Validation("quantity", fmt.Sprintf("You can book at most %d tickets for this event.", limit))
	}
	return nil
}

// normalizeCustomer trims the contact fields, defaults delivery to email and
// checks what the backend would otherwise reject.
func normalizeCustomer(c models.Customer) (models.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.DeliveryMethod = strings.ToUpper(strings.TrimSpace(c.DeliveryMethod))
	if c.DeliveryMethod == "" {
		c.DeliveryMethod = models.DeliveryEmail
	}

	if err := validation.Validate(c.Name, validation.Required, validation.Length(2, 120)); err != nil {
		return c, status.Validation("customerName", "Enter your full name.")
	}
	if err := validation.Validate(c.Email, validation.Required, is.EmailFormat); err != nil {
		return c, status.Validation("customerEmail", "Enter a valid email address.")
	}
	if err := validation.Validate(c.DeliveryMethod, validation.In(models.DeliveryEmail, models.DeliverySMS, models.DeliveryBoth)); err != nil {
		return c, status.Validation("deliveryMethod", "Choose email, SMS or both.")
	}

	phoneRules := []validation.Rule{validation.Match(phonePattern)}
	if c.DeliveryMethod != models.DeliveryEmail {
		phoneRules = append(phoneRules, validation.Required)
	}
	if err := validation.Validate(c.Phone, phoneRules...); err != nil {
		return c, status.Validation("customerPhone", "Enter a valid phone number for SMS delivery.")
	}
	return c, nil
}
