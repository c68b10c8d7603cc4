package job

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusUpdateDTO is the body of a status patch.
type StatusUpdateDTO struct {
	Status      string `json:"status" validate:"required,oneof=Pending 'In Progress' Completed"`
	CompletedBy string `json:"completedBy"`
}

func (d *StatusUpdateDTO) Normalize() {
	d.Status = strings.TrimSpace(d.Status)
	d.CompletedBy = strings.TrimSpace(d.CompletedBy)
}

// Ok normalizes the DTO and returns field errors keyed by struct field name.
func (d *StatusUpdateDTO) Ok() (map[string]string, bool) {
	d.Normalize()
	err := validate.Struct(d)
	if err == nil {
		return map[string]string{}, true
	}
	errs := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Status":
				errs[fe.Field()] = "status must be one of Pending, In Progress, Completed"
			default:
				errs[fe.Field()] = fe.Field() + " failed " + fe.Tag()
			}
		}
		return errs, false
	}
	errs["_"] = err.Error()
	return errs, false
}
