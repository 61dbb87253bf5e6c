package ident

import (
	"errors"
	"strings"
	"testing"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEntityID(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		expectErr bool
	}{
		{name: "build type id", id: "TrainingWheels__Build"},
		{name: "absolute template id", id: "MinecraftForge_SetupGradleUtilsCiEnvironmen"},
		{name: "single letter", id: "A"},
		{name: "error - empty", id: "", expectErr: true},
		{name: "error - leading digit", id: "1Build", expectErr: true},
		{name: "error - leading underscore", id: "_Build", expectErr: true},
		{name: "error - hyphen", id: "Build-Main", expectErr: true},
		{name: "error - dot", id: "Root.Build", expectErr: true},
		{name: "error - too long", id: "A" + strings.Repeat("b", MaxEntityIDLength), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEntityID(KindBuildType, tc.id)
			if !tc.expectErr {
				assert.NoError(t, err)
				return
			}
			var idErr *configerr.InvalidIdentifierError
			require.True(t, errors.As(err, &idErr))
			assert.Equal(t, tc.id, idErr.ID)
		})
	}
}

func TestValidateFeatureID(t *testing.T) {
	assert.NoError(t, ValidateFeatureID(KindFeature, "trigger_gradle-functional_publish"))
	assert.NoError(t, ValidateFeatureID(KindFeature, "TrainingWheels__IssueTracker"))
	assert.NoError(t, ValidateFeatureID(KindFeature, "swabra.1"))
	assert.Error(t, ValidateFeatureID(KindFeature, ""))
	assert.Error(t, ValidateFeatureID(KindFeature, "-leading"))
	assert.Error(t, ValidateFeatureID(KindFeature, "has space"))
}

func TestValidateParameterName(t *testing.T) {
	valid := []string{"git_main_branch", "env.PUBLISHED_JAVA_GROUP", "docker_jdk_version", "teamcity.build.id", "a-b.c"}
	for _, name := range valid {
		assert.NoError(t, ValidateParameterName(name), name)
	}

	invalid := []string{"", "env..X", ".leading", "trailing.", "has space", "env.%X%"}
	for _, name := range invalid {
		assert.Error(t, ValidateParameterName(name), name)
	}
}

func TestReferences(t *testing.T) {
	testCases := []struct {
		name      string
		value     string
		expected  []string
		expectErr bool
	}{
		{name: "no references", value: "plain text", expected: nil},
		{name: "single reference", value: "%git_main_branch%", expected: []string{"git_main_branch"}},
		{name: "embedded references", value: "https://github.com/MinecraftForge/%github_repository_name%/tree/%git_main_branch%", expected: []string{"github_repository_name", "git_main_branch"}},
		{name: "duplicates collapse", value: "%a%-%a%-%b%", expected: []string{"a", "b"}},
		{name: "escaped percent", value: "100%% of %env.X%", expected: []string{"env.X"}},
		{name: "error - unterminated", value: "%git_main_branch", expectErr: true},
		{name: "error - invalid name", value: "%has space%", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			refs, err := References(tc.value)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, refs)
		})
	}
}

func TestHasPrefix(t *testing.T) {
	prefixes := []string{"teamcity.", "build."}
	assert.True(t, HasPrefix("teamcity.build.branch", prefixes))
	assert.True(t, HasPrefix("build.number", prefixes))
	assert.False(t, HasPrefix("env.BUILD", prefixes))
	assert.False(t, HasPrefix("teamcity", prefixes))
}

func TestExpand(t *testing.T) {
	values := map[string]string{
		"github_repository_name": "TrainingWheels",
		"git_main_branch":        "main",
	}
	lookup := func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}

	testCases := []struct {
		name      string
		value     string
		expected  string
		expectErr bool
	}{
		{name: "plain", value: "no refs", expected: "no refs"},
		{name: "known references", value: "https://github.com/MinecraftForge/%github_repository_name%/tree/%git_main_branch%", expected: "https://github.com/MinecraftForge/TrainingWheels/tree/main"},
		{name: "runtime reference kept", value: "%teamcity.build.branch%@%git_main_branch%", expected: "%teamcity.build.branch%@main"},
		{name: "escape kept", value: "100%%", expected: "100%%"},
		{name: "error - unterminated", value: "%git_main_branch", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(tc.value, lookup)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
