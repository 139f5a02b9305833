package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/tasks"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createMeetingRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Description    string   `json:"description"`
	StartTime      string   `json:"start_time" validate:"required"`
	EndTime        string   `json:"end_time" validate:"required"`
	Attendees      []string `json:"attendees" validate:"omitempty,dive,email"`
	SyncToCalendar bool     `json:"sync_to_calendar"`
}

type updateMeetingRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=255"`
	Description *string   `json:"description"`
	StartTime   *string   `json:"start_time"`
	EndTime     *string   `json:"end_time"`
	Attendees   *[]string `json:"attendees" validate:"omitempty,dive,email"`
}

type availabilityRequest struct {
	StartTime string `validate:"required" json:"start_time"`
	EndTime   string `validate:"required" json:"end_time"`
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidArgument, err)
	}
	return nil
}

// checkStruct runs the validator tags of req and converts failures to a [shared.ValidationError].
func checkStruct(req any) *shared.ValidationError {
	verr := shared.NewValidationError()

	err := validate.Struct(req)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return verr
	}

	for _, fe := range fieldErrs {
		field := fieldKey(fe.Field())
		verr.Add(field, fieldMessage(field, fe))
	}
	return verr
}

// fieldKey turns "attendees[1]" into "attendees.1".
func fieldKey(name string) string {
	return strings.NewReplacer("[", ".", "]", "").Replace(name)
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

// parseField parses a timestamp field, recording a message on verr when it is unreadable.
func parseField(verr *shared.ValidationError, field, value string, loc *time.Location) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := shared.ParseTime(value, loc)
	if err != nil {
		verr.Add(field, fmt.Sprintf("The %s field must be a valid date.", field))
	}
	return t
}

func (req createMeetingRequest) input(loc *time.Location) (tasks.MeetingInput, error) {
	verr := checkStruct(req)
	in := tasks.MeetingInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   parseField(verr, "start_time", req.StartTime, loc),
		EndTime:     parseField(verr, "end_time", req.EndTime, loc),
		Attendees:   req.Attendees,
	}
	return in, verr.OrNil()
}

func (req updateMeetingRequest) patch(loc *time.Location) (tasks.MeetingPatch, error) {
	verr := checkStruct(req)
	patch := tasks.MeetingPatch{
		Title:       req.Title,
		Description: req.Description,
		Attendees:   req.Attendees,
	}
	if req.StartTime != nil {
		t := parseField(verr, "start_time", *req.StartTime, loc)
		if *req.StartTime == "" {
			verr.Add("start_time", "The start_time field must be a valid date.")
		}
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t := parseField(verr, "end_time", *req.EndTime, loc)
		if *req.EndTime == "" {
			verr.Add("end_time", "The end_time field must be a valid date.")
		}
		patch.EndTime = &t
	}
	return patch, verr.OrNil()
}

func (req availabilityRequest) window(loc *time.Location) (time.Time, time.Time, error) {
	verr := checkStruct(req)
	start := parseField(verr, "start_time", req.StartTime, loc)
	end := parseField(verr, "end_time", req.EndTime, loc)
	if verr.Empty() && !end.After(start) {
		verr.Add("end_time", "The end_time field must be a date after start_time.")
	}
	return start, end, verr.OrNil()
}

// meetingFilter reads scope, from and to from the query string.
func meetingFilter(r *http.Request, loc *time.Location) (models.MeetingFilter, error) {
	q := r.URL.Query()
	verr := shared.NewValidationError()

	scope, ok := models.ParseScope(q.Get("scope"))
	if !ok {
		verr.Add("scope", "The selected scope is invalid.")
	}
	filter := models.MeetingFilter{Scope: scope}

	if v := q.Get("from"); v != "" {
		t := parseField(verr, "from", v, loc)
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t := parseField(verr, "to", v, loc)
		filter.To = &t
	}
	return filter, verr.OrNil()
}
