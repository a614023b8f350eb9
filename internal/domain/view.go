package domain

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes all markup from upstream free text.
var stripPolicy = bluemonday.StrictPolicy()

// Summary is what a list row shows for one job.
type Summary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	Salary     string `json:"salary"`
	Phone      string `json:"phone"`
	ImageURL   string `json:"image_url,omitempty"`
	Bookmarked bool   `json:"bookmarked"`
}

// Summarize derives the list row for j. bookmarked is passed in by the caller
// because membership lives in the bookmark set, not in the record.
func Summarize(j Job, bookmarked bool) Summary {
	return Summary{
		ID:         j.ID,
		Title:      orDefault(j.Title, "No Title"),
		Company:    orDefault(j.CompanyName, NotAvailable),
		Location:   j.Location(),
		Salary:     j.Salary(),
		Phone:      j.Phone(),
		ImageURL:   j.ImageURL(),
		Bookmarked: bookmarked,
	}
}

// Details is the full detail view of a job with its outbound actions.
type Details struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Company       string  `json:"company"`
	Location      string  `json:"location"`
	Salary        string  `json:"salary"`
	JobRole       string  `json:"job_role"`
	Experience    string  `json:"experience"`
	Qualification string  `json:"qualification"`
	Description   string  `json:"description,omitempty"`
	Phone         string  `json:"phone"`
	Bookmarked    bool    `json:"bookmarked"`
	Actions       Actions `json:"actions"`
}

// Actions are the platform intents a presentation layer may fire.
// Empty fields mean the action is unavailable for this job.
type Actions struct {
	CallURL      string `json:"call_url,omitempty"`
	CallLabel    string `json:"call_label,omitempty"`
	WhatsAppLink string `json:"whatsapp_link,omitempty"`
	ShareTitle   string `json:"share_title"`
	ShareMessage string `json:"share_message"`
}

func Describe(j Job, bookmarked bool) Details {
	title := orDefault(j.Title, "Job Title Not Available")
	location := j.Location()
	salary := j.Salary()
	phone := j.Phone()

	d := Details{
		ID:            j.ID,
		Title:         title,
		Company:       orDefault(j.CompanyName, NotAvailable),
		Location:      location,
		Salary:        salary,
		JobRole:       orDefault(j.JobRole, NotAvailable),
		Experience:    j.primaryDetail(func(p *PrimaryDetails) Text { return p.Experience }),
		Qualification: j.primaryDetail(func(p *PrimaryDetails) Text { return p.Qualification }),
		Description:   PlainText(j.OtherDetails.String()),
		Phone:         phone,
		Bookmarked:    bookmarked,
		Actions: Actions{
			WhatsAppLink: j.WhatsAppLink(),
			ShareTitle:   "Job Opportunity: " + title,
			ShareMessage: ShareMessage(title, orDefault(j.CompanyName, NotAvailable), location, salary, phone),
		},
	}

	if phone != NotAvailable {
		d.Actions.CallURL = telPrefix + phone
		d.Actions.CallLabel = callLabel(j.ButtonText.String(), phone)
	}

	return d
}

// ShareMessage composes the text handed to the platform share sheet.
func ShareMessage(title, company, location, salary, phone string) string {
	contact := phone
	if phone == "" || phone == NotAvailable {
		contact = "See app for details"
	}
	return fmt.Sprintf(
		"Check out this job opportunity:\n\n*%s* at %s\nLocation: %s\nSalary: %s\n\nContact: %s",
		title, company, location, salary, contact,
	)
}

func callLabel(buttonText, phone string) string {
	if strings.Contains(buttonText, "Call") {
		return buttonText
	}
	return fmt.Sprintf("Call (%s)", phone)
}

// PlainText strips markup and decodes entities from upstream free text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
