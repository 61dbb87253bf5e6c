package templates

import (
	"errors"
	"testing"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[string]*Template

func (c mapCatalog) Lookup(id string) (*Template, bool) {
	t, ok := c[id]
	return t, ok
}

func gradleTemplate() Template {
	return Template{
		ID: "Gradle",
		Steps: []Step{
			{ID: "build", Kind: "gradle", Params: map[string]string{"tasks": "build"}},
		},
		Features: []Feature{
			{ID: "swabra", Kind: "swabra", Overridable: true},
			{ID: "docker", Kind: "dockerSupport", Params: map[string]string{"jdk": "%docker_jdk_version%"}},
		},
	}
}

func TestResolve(t *testing.T) {
	catalog := mapCatalog{
		"MinecraftForge_PublishProjectUsingGradle": {Features: []Feature{{ID: "publish", Kind: "publish"}}},
		"MinecraftForge_BuildMainBranches":         {Features: []Feature{{ID: "vcs", Kind: "vcs"}, {ID: "swabra", Kind: "swabra"}}},
		"Gradle":                                   {Features: []Feature{{ID: "shadowed", Kind: "opaque"}}},
	}
	r := NewResolver(catalog)
	require.NoError(t, r.Register(gradleTemplate()))
	require.NoError(t, r.RegisterExternal("MinecraftForge_SetupGradleUtilsCiEnvironmen"))
	require.NoError(t, r.RegisterExternal("MinecraftForge_BuildMainBranches"))

	testCases := []struct {
		name      string
		id        string
		external  bool
		features  int
		expectErr bool
	}{
		{name: "local template wins over the catalog", id: "Gradle", features: 2},
		{name: "external placeholder", id: "MinecraftForge_SetupGradleUtilsCiEnvironmen", external: true},
		{name: "catalog entry", id: "MinecraftForge_PublishProjectUsingGradle", external: true, features: 1},
		{name: "catalog fills a declared external", id: "MinecraftForge_BuildMainBranches", external: true, features: 2},
		{name: "error - unknown", id: "Missing", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := r.Resolve(tc.id)
			if tc.expectErr {
				var unknown *configerr.UnknownTemplateError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tc.id, unknown.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.id, tmpl.ID)
			assert.Equal(t, tc.external, tmpl.External)
			assert.Len(t, tmpl.Features, tc.features)
		})
	}
}

func TestResolve_ReturnsCopy(t *testing.T) {
	r := NewResolver(nil)
	require.NoError(t, r.Register(gradleTemplate()))

	tmpl, err := r.Resolve("Gradle")
	require.NoError(t, err)
	tmpl.Steps[0].Params["tasks"] = "clean"
	tmpl.Features = nil

	again, err := r.Resolve("Gradle")
	require.NoError(t, err)
	assert.Equal(t, "build", again.Steps[0].Params["tasks"])
	assert.Len(t, again.Features, 2)
}

func TestRegister_Errors(t *testing.T) {
	r := NewResolver(nil)
	require.NoError(t, r.Register(gradleTemplate()))
	require.NoError(t, r.RegisterExternal("Shared"))

	var dup *configerr.DuplicateIdError
	assert.ErrorAs(t, r.Register(gradleTemplate()), &dup)
	assert.ErrorAs(t, r.RegisterExternal("Gradle"), &dup)
	assert.ErrorAs(t, r.Register(Template{ID: "Shared"}), &dup)

	var invalid *configerr.InvalidIdentifierError
	assert.ErrorAs(t, r.RegisterExternal("not-an-id"), &invalid)
	assert.ErrorAs(t, r.Register(Template{ID: "1Template"}), &invalid)

	err := r.Register(Template{
		ID:       "Twice",
		Features: []Feature{{ID: "a"}, {ID: "a"}},
	})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "template Twice", dup.Owner)

	_, err = r.Resolve("Twice")
	assert.Error(t, err, "a rejected template must not be registered")
}

func TestCompose(t *testing.T) {
	t.Run("steps and features in declaration order", func(t *testing.T) {
		r := NewResolver(nil)
		require.NoError(t, r.Register(gradleTemplate()))
		require.NoError(t, r.Register(Template{
			ID:    "Publish",
			Steps: []Step{{ID: "publish", Kind: "gradle"}},
		}))
		require.NoError(t, r.RegisterExternal("Shared"))

		comp, err := r.Compose("Build", []string{"Gradle", "Shared", "Publish"}, []Feature{{ID: "notify", Kind: "discordNotifier"}})
		require.NoError(t, err)

		require.Len(t, comp.Steps, 2)
		assert.Equal(t, "build", comp.Steps[0].ID)
		assert.Equal(t, "publish", comp.Steps[1].ID)

		ids := make([]string, 0, len(comp.Features))
		for _, f := range comp.Features {
			ids = append(ids, f.ID)
		}
		assert.Equal(t, []string{"swabra", "docker", "notify"}, ids)
		assert.Equal(t, "template Gradle", comp.Origins["docker"])
		assert.Equal(t, "build type Build", comp.Origins["notify"])
		assert.Len(t, comp.Templates, 3)
	})

	t.Run("overridable feature is replaced in place", func(t *testing.T) {
		r := NewResolver(nil)
		require.NoError(t, r.Register(gradleTemplate()))

		comp, err := r.Compose("Build", []string{"Gradle"}, []Feature{{ID: "swabra", Kind: "swabra", Params: map[string]string{"mode": "strict"}}})
		require.NoError(t, err)
		require.Len(t, comp.Features, 2)
		assert.Equal(t, "swabra", comp.Features[0].ID)
		assert.Equal(t, "strict", comp.Features[0].Params["mode"])
		assert.Equal(t, "build type Build", comp.Origins["swabra"])
	})

	t.Run("collision with a non-overridable feature", func(t *testing.T) {
		r := NewResolver(nil)
		require.NoError(t, r.Register(gradleTemplate()))
		require.NoError(t, r.Register(Template{ID: "Docker", Features: []Feature{{ID: "docker", Kind: "dockerSupport"}}}))

		_, err := r.Compose("Build", []string{"Gradle", "Docker"}, []Feature{{ID: "docker"}})
		var collision *configerr.FeatureCollisionError
		require.ErrorAs(t, err, &collision)
		assert.Equal(t, "Build", collision.BuildType)
		assert.Equal(t, "docker", collision.FeatureID)
		assert.Equal(t, "template Gradle", collision.Existing)

		joined, ok := err.(interface{ Unwrap() []error })
		require.True(t, ok)
		assert.Len(t, joined.Unwrap(), 2, "every collision is reported")
	})

	t.Run("unknown template is reported with the build type", func(t *testing.T) {
		r := NewResolver(nil)
		require.NoError(t, r.Register(gradleTemplate()))

		comp, err := r.Compose("PullRequests", []string{"Missing", "Gradle"}, nil)
		var unknown *configerr.UnknownTemplateError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "PullRequests", unknown.BuildType)
		assert.Len(t, comp.Steps, 1, "known templates are still applied")
	})

	t.Run("duplicate own features are left to the caller", func(t *testing.T) {
		r := NewResolver(nil)
		comp, err := r.Compose("Build", nil, []Feature{{ID: "a", Kind: "first"}, {ID: "a", Kind: "second"}})
		require.NoError(t, err)
		require.Len(t, comp.Features, 1)
		assert.Equal(t, "first", comp.Features[0].Kind)
	})
}

func TestFreeze(t *testing.T) {
	r := NewResolver(nil)
	require.NoError(t, r.Register(gradleTemplate()))
	r.Freeze()

	var frozen *configerr.FrozenStateError
	assert.ErrorAs(t, r.Register(Template{ID: "Other"}), &frozen)
	assert.ErrorAs(t, r.RegisterExternal("Other"), &frozen)

	_, err := r.Resolve("Gradle")
	assert.NoError(t, err)
}
