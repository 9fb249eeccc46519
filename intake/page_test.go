package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageURL_SetSessionKeepsOtherParams(t *testing.T) {
	page, err := ParsePageURL("https://intake.example/start?utm_source=ads")
	require.NoError(t, err)

	_, ok := page.SessionID()
	assert.False(t, ok)

	page.SetSessionID("abc123")

	id, ok := page.SessionID()
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, "https://intake.example/start?userId=abc123&utm_source=ads", page.String())
	assert.Equal(t, []string{
		"https://intake.example/start?utm_source=ads",
		"https://intake.example/start?userId=abc123&utm_source=ads",
	}, page.History())
}

func TestPageURL_ClearSession(t *testing.T) {
	page, err := ParsePageURL("https://intake.example/?userId=abc123")
	require.NoError(t, err)

	page.ClearSessionID()
	page.ClearSessionID()

	_, ok := page.SessionID()
	assert.False(t, ok)
	assert.Len(t, page.History(), 2)
}

func TestPageURL_EmptyParamIsNoSession(t *testing.T) {
	page, err := ParsePageURL("https://intake.example/?userId=")
	require.NoError(t, err)

	_, ok := page.SessionID()
	assert.False(t, ok)
}

func TestParsePageURL_Invalid(t *testing.T) {
	_, err := ParsePageURL("://bad")
	assert.Error(t, err)
}

func TestFormFields_StepHelpers(t *testing.T) {
	assert.Equal(t, FieldEmail, StepField(1))
	assert.Equal(t, FieldTherapyForWhom, StepField(2))
	assert.Equal(t, FieldTherapistGender, StepField(3))
	assert.Nil(t, StepOptions(1))
	assert.Len(t, StepOptions(2), 3)
	assert.Len(t, StepOptions(3), 4)

	assert.True(t, FormFields{}.IsEmpty())
	assert.False(t, FormFields{TherapistGender: GenderMale}.IsEmpty())
}
