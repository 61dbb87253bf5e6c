package githubissues

import (
	"testing"

	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		owner     string
		repo      string
		expectErr bool
	}{
		{name: "plain", url: "https://github.com/MinecraftForge/TrainingWheels", owner: "MinecraftForge", repo: "TrainingWheels"},
		{name: "git suffix and slash", url: "https://github.com/MinecraftForge/TrainingWheels.git/", owner: "MinecraftForge", repo: "TrainingWheels"},
		{name: "error - http", url: "http://github.com/a/b", expectErr: true},
		{name: "error - other host", url: "https://gitlab.com/a/b", expectErr: true},
		{name: "error - owner only", url: "https://github.com/MinecraftForge", expectErr: true},
		{name: "error - too deep", url: "https://github.com/a/b/tree/main", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := Repository(tc.url)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(templates.Feature{Params: map[string]string{"repositoryURL": "https://github.com/MinecraftForge/%github_repository_name%"}}))
	assert.Len(t, Validate(templates.Feature{}), 1)
	assert.Len(t, Validate(templates.Feature{Params: map[string]string{"repositoryURL": "https://example.com/x"}}), 1)
}

func TestNormalize(t *testing.T) {
	f := Normalize(templates.Feature{Params: map[string]string{"repositoryURL": "https://github.com/MinecraftForge/TrainingWheels"}})
	assert.Equal(t, "MinecraftForge/TrainingWheels", f.Params["displayName"])

	f = Normalize(templates.Feature{Params: map[string]string{"repositoryURL": "https://github.com/a/b", "displayName": "Custom"}})
	assert.Equal(t, "Custom", f.Params["displayName"])
}

func TestNormalize_KeepsReferences(t *testing.T) {
	f := Normalize(templates.Feature{Params: map[string]string{"repositoryURL": "https://github.com/MinecraftForge/%github_repository_name%"}})
	assert.Equal(t, "MinecraftForge/%github_repository_name%", f.Params["displayName"])
}
