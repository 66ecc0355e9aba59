package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationStatus(t *testing.T) {
	s, err := ParseApplicationStatus(" reviewed ")
	require.NoError(t, err)
	assert.Equal(t, ApplicationReviewed, s)

	_, err = ParseApplicationStatus("ARCHIVED")
	assert.Error(t, err)

	_, err = ParseApplicationStatus("")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	_, err := ParseInterviewStatus("IN_PROGRESS")
	assert.NoError(t, err)
	_, err = ParseOfferStatus("SIGNED")
	assert.Error(t, err)
	_, err = ParseRecommendation("strong_hire")
	assert.NoError(t, err)
	_, err = ParseInterviewType("ONSITE")
	assert.Error(t, err)
	_, err = ParseRole("hr_manager")
	assert.NoError(t, err)
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleHRManager.IsStaff())
	assert.False(t, RoleEmployee.IsStaff())
	assert.False(t, RoleCandidate.IsStaff())
}
