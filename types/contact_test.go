package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactPatchApply(t *testing.T) {
	note := "old note"
	contact := Contact{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Phone:     "555-0100",
		Birthday:  NewDate(2000, time.March, 10),
		Note:      &note,
	}

	phone := "555-0199"
	patch := ContactPatch{Phone: &phone}
	patch.Apply(&contact)

	assert.Equal(t, "555-0199", contact.Phone)
	assert.Equal(t, "Ann", contact.FirstName)
	assert.Equal(t, "Lee", contact.LastName)
	assert.Equal(t, "ann@x.com", contact.Email)
	assert.Equal(t, NewDate(2000, time.March, 10), contact.Birthday)
	require.NotNil(t, contact.Note)
	assert.Equal(t, "old note", *contact.Note)
}

func TestContactPatchDecode(t *testing.T) {
	var patch ContactPatch
	err := json.Unmarshal([]byte(`{"phone": "555-0199"}`), &patch)
	require.NoError(t, err)

	require.NotNil(t, patch.Phone)
	assert.Equal(t, "555-0199", *patch.Phone)
	assert.Nil(t, patch.FirstName)
	assert.Nil(t, patch.LastName)
	assert.Nil(t, patch.Email)
	assert.Nil(t, patch.Birthday)
	assert.Nil(t, patch.Note)
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2000-03-10"`), &d))
	assert.Equal(t, NewDate(2000, time.March, 10), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2000-03-10"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"10.03.2000"`), &d))
}
