package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFamilyForExitCode(t *testing.T) {
	cases := []struct {
		code int
		want ErrorFamily
	}{
		{0, FamilyOK},
		{1, FamilySchema},
		{2, FamilyConnection},
		{3, FamilySemantic},
		{4, FamilyTimeout},
		{5, FamilyPlatform},
		{42, FamilyPlatform},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, familyForExitCode(tc.code))
	}
}
