package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
)

func TestAllowAllPassesThroughUnchanged(t *testing.T) {
	al := Build(true, nil)
	resolved, ok, warn, err := al.Resolve([]string{"anything", "here"}, config.Error)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.True(t, ok)
	assert.Equal(t, []string{"anything", "here"}, resolved)
}

func TestAliasSubstitution(t *testing.T) {
	al := Build(false, []config.AllowListEntry{{As: "org", Field: "organization.name"}})
	resolved, ok, _, err := al.Resolve([]string{"org"}, config.Error)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"organization", "name"}, resolved)
}

func TestFullPathAllowed(t *testing.T) {
	al := Build(false, []config.AllowListEntry{{Field: "organization.name"}})
	resolved, ok, _, err := al.Resolve([]string{"organization", "name"}, config.Error)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"organization", "name"}, resolved)
}

func TestSingleLeafConvenience(t *testing.T) {
	al := Build(false, []config.AllowListEntry{{Field: "status"}})
	resolved, ok, _, err := al.Resolve([]string{"status"}, config.Error)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"status"}, resolved)
}

func TestUnknownFieldIgnorePolicyDropsSilently(t *testing.T) {
	al := Build(false, nil)
	_, ok, warn, err := al.Resolve([]string{"status"}, config.Ignore)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.False(t, ok)
}

func TestUnknownFieldWarnPolicyRecordsWarning(t *testing.T) {
	al := Build(false, nil)
	_, ok, warn, err := al.Resolve([]string{"status"}, config.Warn)
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.False(t, ok)
	assert.Equal(t, diag.WarnUnknownField, warn.Reason)
	assert.Equal(t, "status", warn.Field)
}

func TestUnknownFieldErrorPolicyFails(t *testing.T) {
	al := Build(false, nil)
	_, ok, warn, err := al.Resolve([]string{"organization", "name"}, config.Error)
	require.Error(t, err)
	assert.Nil(t, warn)
	assert.False(t, ok)
	de, isErr := err.(diag.Error)
	require.True(t, isErr)
	assert.Equal(t, diag.UnknownField, de.Reason)
	assert.Equal(t, diag.Build, de.StageOf)
}

func TestUnrecognizedEntriesAreDroppedSilently(t *testing.T) {
	al := Build(false, []config.AllowListEntry{{}, {Field: "status"}})
	assert.Len(t, al.Allowed, 1)
	assert.Len(t, al.Aliases, 0)
}
