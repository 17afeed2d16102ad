package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("g@briel984gM"))
	assert.True(t, ValidPassword("Abcdef1!"))
	assert.True(t, ValidPassword("Abcdefghij12345678!x"))
}

func TestPasswordProblems(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no uppercase", "g@briel984gm", "must contain an uppercase letter"},
		{"no lowercase", "G@BRIEL984GM", "must contain a lowercase letter"},
		{"no digit", "g@brielgggM", "must contain a digit"},
		{"no special", "gabriel984gM", "must contain a special character"},
		{"too short", "g@B1", "must have at least 8 characters"},
		{"too long", "g@briel984gMg@briel984gM", "must have at most 20 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PasswordProblems(tc.in)
			assert.False(t, ValidPassword(tc.in))
			assert.Contains(t, got, tc.want)
		})
	}
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("(11) 98765-4321"))
	assert.True(t, ValidPhone("1133334444"))
	assert.False(t, ValidPhone("123456789"))
	assert.False(t, ValidPhone("119876543210"))
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("dr_house"))
	assert.False(t, ValidUsername("dr.house"))
	assert.False(t, ValidUsername(""))
}
