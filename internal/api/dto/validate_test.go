package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("alice@example.com"))
	assert.True(t, ValidEmail("a.b+c@sub.example.org"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail("spaces in@example.com"))
	assert.False(t, ValidEmail(""))
}

func TestCreateTicketRequestValidate(t *testing.T) {
	valid := CreateTicketRequest{
		Title:         "printer on fire",
		Description:   "lp0 reports smoke",
		ReporterEmail: "reporter@example.com",
		ReporterName:  "Rey Porter",
	}
	assert.NoError(t, valid.Validate())

	blankTitle := valid
	blankTitle.Title = "   "
	assert.Error(t, blankTitle.Validate())

	longTitle := valid
	longTitle.Title = strings.Repeat("x", 201)
	assert.Error(t, longTitle.Validate())

	longDescription := valid
	longDescription.Description = strings.Repeat("x", 2001)
	assert.Error(t, longDescription.Validate())

	badEmail := valid
	badEmail.ReporterEmail = "nope"
	assert.Error(t, badEmail.Validate())
}

func TestUpdateTicketRequestValidate(t *testing.T) {
	assert.NoError(t, UpdateTicketRequest{}.Validate())

	title := "new title"
	assert.NoError(t, UpdateTicketRequest{Title: &title}.Validate())

	blank := " "
	assert.Error(t, UpdateTicketRequest{Title: &blank}.Validate())

	long := strings.Repeat("x", 2001)
	assert.Error(t, UpdateTicketRequest{Description: &long}.Validate())
}

func TestCreateMessageRequestValidate(t *testing.T) {
	valid := CreateMessageRequest{
		Content:     "restart the spooler",
		AuthorEmail: "agent@example.com",
		AuthorName:  "Agent One",
	}
	assert.NoError(t, valid.Validate())

	long := valid
	long.Content = strings.Repeat("x", 1001)
	assert.Error(t, long.Validate())

	badEmail := valid
	badEmail.AuthorEmail = "nope"
	assert.Error(t, badEmail.Validate())
}
