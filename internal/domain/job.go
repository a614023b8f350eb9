package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidJob is returned for records that cannot take part in the feed or
// the bookmark set, i.e. anything without a numeric id.
var ErrInvalidJob = errors.New("invalid job record")

// Job is one listing as returned by the jobs API.
//
// A Job is read-only once decoded. The original JSON is kept and written back
// verbatim by MarshalJSON, so a persisted bookmark is the full upstream
// snapshot, including fields that are not modeled here.
type Job struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the upstream numeric identifier. Required.
	ID int64 `json:"id"`

	// ─────────────────────────────
	// Display strings
	// ─────────────────────────────

	Title        Text `json:"title"`
	CompanyName  Text `json:"company_name"`
	JobRole      Text `json:"job_role"`
	OtherDetails Text `json:"other_details"`
	ButtonText   Text `json:"button_text"`

	PrimaryDetails *PrimaryDetails `json:"primary_details"`

	// ─────────────────────────────
	// Fallback sources for location, salary and contact
	// ─────────────────────────────

	JobLocationSlug Text `json:"job_location_slug"`
	SalaryMin       Text `json:"salary_min"`
	SalaryMax       Text `json:"salary_max"`
	CustomLink      Text `json:"custom_link"`
	WhatsappNo      Text `json:"whatsapp_no"`

	Creatives         []Creative         `json:"creatives"`
	ContactPreference *ContactPreference `json:"contact_preference"`

	raw json.RawMessage
}

// PrimaryDetails is the upstream "primary_details" block. Keys are capitalized upstream.
type PrimaryDetails struct {
	Place         Text `json:"Place"`
	Salary        Text `json:"Salary"`
	Experience    Text `json:"Experience"`
	Qualification Text `json:"Qualification"`
}

type Creative struct {
	ThumbURL Text `json:"thumb_url"`
	File     Text `json:"file"`
}

type ContactPreference struct {
	WhatsappLink Text `json:"whatsapp_link"`
}

// jobFields mirrors Job without its methods so decoding does not recurse.
type jobFields struct {
	ID                json.RawMessage    `json:"id"`
	Title             Text               `json:"title"`
	CompanyName       Text               `json:"company_name"`
	JobRole           Text               `json:"job_role"`
	OtherDetails      Text               `json:"other_details"`
	ButtonText        Text               `json:"button_text"`
	PrimaryDetails    *PrimaryDetails    `json:"primary_details"`
	JobLocationSlug   Text               `json:"job_location_slug"`
	SalaryMin         Text               `json:"salary_min"`
	SalaryMax         Text               `json:"salary_max"`
	CustomLink        Text               `json:"custom_link"`
	WhatsappNo        Text               `json:"whatsapp_no"`
	Creatives         creativeList       `json:"creatives"`
	ContactPreference *ContactPreference `json:"contact_preference"`
}

// Nested groups with the wrong shape decode as absent.
func (p *PrimaryDetails) UnmarshalJSON(data []byte) error {
	type plain PrimaryDetails
	return decodeObject(data, (*plain)(p))
}

func (c *Creative) UnmarshalJSON(data []byte) error {
	type plain Creative
	return decodeObject(data, (*plain)(c))
}

func (c *ContactPreference) UnmarshalJSON(data []byte) error {
	type plain ContactPreference
	return decodeObject(data, (*plain)(c))
}

func decodeObject(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	return json.Unmarshal(data, v)
}

type creativeList []Creative

func (l *creativeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}
	var items []Creative
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ParseJob decodes a single record. Records that are not JSON objects or
// whose id is not an integral JSON number yield ErrInvalidJob.
func ParseJob(data []byte) (Job, error) {
	var j Job
	if err := j.UnmarshalJSON(data); err != nil {
		return Job{}, err
	}
	return j, nil
}

func (j *Job) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: not an object", ErrInvalidJob)
	}

	var f jobFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	id, err := parseID(f.ID)
	if err != nil {
		return err
	}

	*j = Job{
		ID:                id,
		Title:             f.Title,
		CompanyName:       f.CompanyName,
		JobRole:           f.JobRole,
		OtherDetails:      f.OtherDetails,
		ButtonText:        f.ButtonText,
		PrimaryDetails:    f.PrimaryDetails,
		JobLocationSlug:   f.JobLocationSlug,
		SalaryMin:         f.SalaryMin,
		SalaryMax:         f.SalaryMax,
		CustomLink:        f.CustomLink,
		WhatsappNo:        f.WhatsappNo,
		Creatives:         []Creative(f.Creatives),
		ContactPreference: f.ContactPreference,
		raw:               append(json.RawMessage(nil), trimmed...),
	}
	return nil
}

// MarshalJSON re-emits the upstream bytes when the job was decoded, so no
// field is ever rewritten. Jobs built in code are encoded from their fields.
func (j Job) MarshalJSON() ([]byte, error) {
	if len(j.raw) > 0 {
		return j.raw, nil
	}
	return json.Marshal(jobFields{
		ID:                json.RawMessage(strconv.FormatInt(j.ID, 10)),
		Title:             j.Title,
		CompanyName:       j.CompanyName,
		JobRole:           j.JobRole,
		OtherDetails:      j.OtherDetails,
		ButtonText:        j.ButtonText,
		PrimaryDetails:    j.PrimaryDetails,
		JobLocationSlug:   j.JobLocationSlug,
		SalaryMin:         j.SalaryMin,
		SalaryMax:         j.SalaryMax,
		CustomLink:        j.CustomLink,
		WhatsappNo:        j.WhatsappNo,
		Creatives:         creativeList(j.Creatives),
		ContactPreference: j.ContactPreference,
	})
}

func parseID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing id", ErrInvalidJob)
	}
	// Only bare JSON numbers count; "12" as a string is rejected.
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, fmt.Errorf("%w: id %s is not a number", ErrInvalidJob, raw)
	}

	s := string(raw)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if err != nil || f != math.Trunc(f) || f >= -math.MinInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: id %s is not an integer", ErrInvalidJob, raw)
	}
	return int64(f), nil
}

// FilterValid decodes raw records in order and keeps the valid ones.
func FilterValid(raws []json.RawMessage) []Job {
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		j, err := ParseJob(raw)
		if err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// Text is a display scalar. Upstream sends the same field as a string, a
// number or a boolean depending on the record; all of them become text.
// null, false and numeric zero become the empty string so they read as
// absent, while the string "0" stays present.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		// Nested values are not displayable; treat as absent.
		*t = ""
	case bytes.Equal(data, []byte("false")):
		*t = ""
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Present reports whether the value carries something worth displaying.
func (t Text) Present() bool { return t != "" }
