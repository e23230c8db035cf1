package types

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ErrMissingJobBrief is returned when a GenerateRequest names neither a brief nor a posting URL.
var ErrMissingJobBrief = errors.New("job_brief or job_url is required")

// GenerateRequest asks for a new proposal. JobURL is fetched when JobBrief is blank.
type GenerateRequest struct {
	JobBrief string `json:"job_brief,omitempty"`
	JobURL   string `json:"job_url,omitempty" validate:"omitempty,url"`
}

// ReviseRequest asks for one revision of an existing proposal.
type ReviseRequest struct {
	CurrentText string             `json:"current_text" validate:"notblank"`
	Instruction string             `json:"instruction" validate:"notblank"`
	History     []ConversationTurn `json:"history,omitempty" validate:"omitempty,dive"`
}

// SaveProposalRequest archives a proposal.
type SaveProposalRequest struct {
	JobBrief      string `json:"job_brief"`
	Content       string `json:"content" validate:"notblank"`
	PortfolioUsed int    `json:"portfolio_used" validate:"min=0"`
}

// Validate validates the GenerateRequest using the validator.
func (r *GenerateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.JobBrief) == "" && r.JobURL == "" {
		return ErrMissingJobBrief
	}
	return nil
}

// Validate validates the ReviseRequest using the validator.
func (r *ReviseRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SaveProposalRequest using the validator.
func (r *SaveProposalRequest) Validate() error {
	return validate.Struct(r)
}
