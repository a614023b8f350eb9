package domain

import (
	"fmt"
	"strings"
)

const (
	NotAvailable = "N/A"
	telPrefix    = "tel:"
)

// Rule extracts one candidate value for a display field.
// ok=false means the rule does not apply to this job.
type Rule func(j Job) (value string, ok bool)

// Field is an ordered list of extraction rules. The first rule that yields a
// value wins; Fallback is used when none does.
type Field struct {
	Name     string
	Rules    []Rule
	Fallback string
}

func (f Field) Derive(j Job) string {
	for _, rule := range f.Rules {
		if v, ok := rule(j); ok {
			return v
		}
	}
	return f.Fallback
}

var (
	LocationField = Field{
		Name:     "location",
		Rules:    []Rule{primaryPlace, locationSlug},
		Fallback: NotAvailable,
	}

	SalaryField = Field{
		Name:     "salary",
		Rules:    []Rule{salaryRange, primarySalary},
		Fallback: NotAvailable,
	}

	PhoneField = Field{
		Name:     "phone",
		Rules:    []Rule{telLink, whatsappNumber},
		Fallback: NotAvailable,
	}

	ImageField = Field{
		Name:  "image",
		Rules: []Rule{firstCreativeThumb, firstCreativeFile},
	}
)

func text(t Text) (string, bool) {
	return t.String(), t.Present()
}

func primaryPlace(j Job) (string, bool) {
	if j.PrimaryDetails == nil {
		return "", false
	}
	return text(j.PrimaryDetails.Place)
}

func locationSlug(j Job) (string, bool) { return text(j.JobLocationSlug) }

func salaryRange(j Job) (string, bool) {
	if !j.SalaryMin.Present() || !j.SalaryMax.Present() {
		return "", false
	}
	return fmt.Sprintf("₹%s - ₹%s", j.SalaryMin, j.SalaryMax), true
}

// primarySalary skips the "-" placeholder upstream uses for "not disclosed".
func primarySalary(j Job) (string, bool) {
	if j.PrimaryDetails == nil || j.PrimaryDetails.Salary == "-" {
		return "", false
	}
	return text(j.PrimaryDetails.Salary)
}

func telLink(j Job) (string, bool) {
	link := j.CustomLink.String()
	if !strings.HasPrefix(link, telPrefix) {
		return "", false
	}
	number := strings.TrimPrefix(link, telPrefix)
	return number, number != ""
}

func whatsappNumber(j Job) (string, bool) { return text(j.WhatsappNo) }

func firstCreativeThumb(j Job) (string, bool) {
	if len(j.Creatives) == 0 {
		return "", false
	}
	return text(j.Creatives[0].ThumbURL)
}

func firstCreativeFile(j Job) (string, bool) {
	if len(j.Creatives) == 0 {
		return "", false
	}
	return text(j.Creatives[0].File)
}

// orDefault returns t or def when t is empty.
func orDefault(t Text, def string) string {
	if t.Present() {
		return t.String()
	}
	return def
}

func (j Job) Location() string { return LocationField.Derive(j) }
func (j Job) Salary() string   { return SalaryField.Derive(j) }
func (j Job) Phone() string    { return PhoneField.Derive(j) }
func (j Job) ImageURL() string { return ImageField.Derive(j) }

// WhatsAppLink is the opaque chat deep link, empty when not provided.
func (j Job) WhatsAppLink() string {
	if j.ContactPreference == nil {
		return ""
	}
	return j.ContactPreference.WhatsappLink.String()
}

func (j Job) primaryDetail(pick func(*PrimaryDetails) Text) string {
	if j.PrimaryDetails == nil {
		return NotAvailable
	}
	return orDefault(pick(j.PrimaryDetails), NotAvailable)
}
