package dto

import (
	"regexp"
	"strings"

	apperrors "github.com/spec-kit/ticket-platform/pkg/util"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxCommentLen     = 1000
	maxNameLen        = 100
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether the value looks like an email address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate checks field bounds for ticket creation.
func (r CreateTicketRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" || len(title) > maxTitleLen {
		return apperrors.NewValidationError("title must be 1-200 characters", nil)
	}
	description := strings.TrimSpace(r.Description)
	if description == "" || len(description) > maxDescriptionLen {
		return apperrors.NewValidationError("description must be 1-2000 characters", nil)
	}
	if !ValidEmail(r.ReporterEmail) {
		return apperrors.NewValidationError("invalid reporter_email", nil)
	}
	name := strings.TrimSpace(r.ReporterName)
	if name == "" || len(name) > maxNameLen {
		return apperrors.NewValidationError("reporter_name must be 1-100 characters", nil)
	}
	return nil
}

// Validate checks bounds for the fields present in the patch.
func (r UpdateTicketRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" || len(title) > maxTitleLen {
			return apperrors.NewValidationError("title must be 1-200 characters", nil)
		}
	}
	if r.Description != nil {
		description := strings.TrimSpace(*r.Description)
		if description == "" || len(description) > maxDescriptionLen {
			return apperrors.NewValidationError("description must be 1-2000 characters", nil)
		}
	}
	return nil
}

// Validate checks field bounds for comments.
func (r CreateCommentRequest) Validate() error {
	content := strings.TrimSpace(r.Content)
	if content == "" || len(content) > maxCommentLen {
		return apperrors.NewValidationError("content must be 1-1000 characters", nil)
	}
	if !ValidEmail(r.AuthorEmail) {
		return apperrors.NewValidationError("invalid author_email", nil)
	}
	name := strings.TrimSpace(r.AuthorName)
	if name == "" || len(name) > maxNameLen {
		return apperrors.NewValidationError("author_name must be 1-100 characters", nil)
	}
	return nil
}

// Validate checks field bounds for thread messages.
func (r CreateMessageRequest) Validate() error {
	content := strings.TrimSpace(r.Content)
	if content == "" || len(content) > maxCommentLen {
		return apperrors.NewValidationError("content must be 1-1000 characters", nil)
	}
	if !ValidEmail(r.AuthorEmail) {
		return apperrors.NewValidationError("invalid author_email", nil)
	}
	return nil
}
