package domain

// EscalationTemplateSlug addresses the stored escalation email template.
const EscalationTemplateSlug = "ticket-escalation"

// EmailTemplate is a stored HTML email body with {variable} placeholders.
type EmailTemplate struct {
	Slug    string
	Subject string
	HTML    string
}
