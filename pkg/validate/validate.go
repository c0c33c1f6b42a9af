// Package validate is the local gate in front of create and update. It never
// touches the network and reports failures keyed by field name.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

const (
	TitleMin       = 3
	TitleMax       = 100
	DescriptionMax = 500
)

// Errors maps a field name (title, description, dueDate) to a message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type taskInput struct {
	Title       *string     `json:"title" validate:"omitnil,min=3,max=100"`
	Description *string     `json:"description" validate:"omitnil,max=500"`
	DueDate     *model.Date `json:"dueDate"`
	Today       model.Date  `json:"-"`
}

// Validator checks drafts and patches against the field limits.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New returns a Validator that uses now to decide which due dates are in the past.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(taskInput)
		if in.DueDate != nil && !in.DueDate.IsZero() && in.DueDate.Before(in.Today) {
			sl.ReportError(in.DueDate, "dueDate", "DueDate", "notpast", "")
		}
	}, taskInput{})
	return &Validator{v: v, now: now}
}

// Draft validates a task about to be created. A nil result means the draft is valid.
func (val *Validator) Draft(d model.Draft) Errors {
	title := strings.TrimSpace(d.Title)
	desc := strings.TrimSpace(d.Description)
	return val.check(taskInput{
		Title:       &title,
		Description: &desc,
		DueDate:     d.DueDate,
		Today:       model.Today(val.now()),
	})
}

// Patch validates only the fields a patch sets.
func (val *Validator) Patch(p model.Patch) Errors {
	in := taskInput{Today: model.Today(val.now())}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		in.Title = &title
	}
	if p.Description != nil && !p.ClearDescription {
		desc := strings.TrimSpace(*p.Description)
		in.Description = &desc
	}
	if p.DueDate != nil && !p.ClearDueDate {
		in.DueDate = p.DueDate
	}
	return val.check(in)
}

func (val *Validator) check(in taskInput) Errors {
	err := val.v.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"_": err.Error()}
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "title.min":
		return fmt.Sprintf("Title must be at least %d characters", TitleMin)
	case "title.max":
		return fmt.Sprintf("Title must be at most %d characters", TitleMax)
	case "description.max":
		return fmt.Sprintf("Description must be at most %d characters", DescriptionMax)
	case "dueDate.notpast":
		return "Due date cannot be in the past"
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}
