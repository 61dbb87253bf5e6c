package hcl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_TrainingWheels(t *testing.T) {
	model, err := NewLoader().Load(testContext(), filepath.Join("..", "..", "examples", "trainingwheels"))
	require.NoError(t, err)

	assert.Equal(t, "2021.2", model.Version)
	require.NotNil(t, model.Project)
	assert.Equal(t, "TrainingWheels", model.Project.ID)
	require.Len(t, model.Params, 8)
	assert.Len(t, model.Templates, 7)
	require.Len(t, model.Features, 1)
	assert.Equal(t, "githubIssues", model.Features[0].Kind)
	require.Len(t, model.BuildTypes, 3)

	// build_types.hcl sorts before project.hcl.
	build := model.BuildTypes[0]
	assert.Equal(t, "TrainingWheels__Build", build.ID)
	assert.Len(t, build.Templates, 5)
	require.Len(t, build.Features, 3)
	assert.Equal(t, "trigger_gradle-functional_publish", build.Features[2].ID)
	assert.Equal(t,
		"env.PUBLISHED_JAVA_ARTIFACT_ID=TrainingWheels-Gradle-Functional\nenv.PUBLISHED_JAVA_ARTIFACT_VERSION\nenv.PUBLISHED_JAVA_GROUP\n",
		build.Features[2].Params["parameters"],
	)

	pr := model.BuildTypes[2]
	require.Len(t, pr.Triggers, 1)
	assert.Equal(t, "vcs", pr.Triggers[0].Kind)

	jdk := model.Params[4]
	assert.Equal(t, "docker_jdk_version", jdk.Name)
	require.NotNil(t, jdk.Default)
	assert.True(t, jdk.Default.RawEquals(cty.StringVal("8")))
	assert.Equal(t, "hidden", jdk.Display)
	assert.False(t, jdk.AllowEmpty)

	gradle := model.Params[5]
	assert.True(t, gradle.AllowEmpty)
	assert.Equal(t, "semver", gradle.Format)
}

func TestLoad_BuildTypeParamsAndTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.hcl", `
param "bool" "publish" {}

template "Gradle" {
  description = "Gradle build"
  step "gradle" "build" {
    name   = "Build"
    params = { tasks = "build", retries = 3 }
  }
  feature "swabra" {
    type        = "swabra"
    overridable = true
  }
}

build_type "Build" {
  templates  = ["Gradle"]
  depends_on = ["Setup"]
  params = {
    docker_jdk_version = "17"
    "env.PUBLISHED_JAVA_GROUP" = "net.neoforged"
    publish = true
  }
  param "enum" "channel" {
    default = "stable"
    options = ["stable", "beta"]
  }
}
`)

	model, err := NewLoader().Load(testContext(), dir)
	require.NoError(t, err)

	require.Len(t, model.Params, 1)
	assert.Nil(t, model.Params[0].Default)
	assert.Equal(t, "bool", model.Params[0].Kind)

	require.Len(t, model.Templates, 1)
	tmpl := model.Templates[0]
	require.Len(t, tmpl.Steps, 1)
	assert.Equal(t, "gradle", tmpl.Steps[0].Kind)
	assert.Equal(t, "3", tmpl.Steps[0].Params["retries"])
	require.Len(t, tmpl.Features, 1)
	assert.True(t, tmpl.Features[0].Overridable)

	bt := model.BuildTypes[0]
	assert.Equal(t, []string{"Setup"}, bt.DependsOn)
	require.Len(t, bt.Overrides, 3)
	assert.True(t, bt.Overrides["docker_jdk_version"].RawEquals(cty.StringVal("17")))
	assert.True(t, bt.Overrides["publish"].RawEquals(cty.True))
	assert.True(t, bt.Overrides["env.PUBLISHED_JAVA_GROUP"].RawEquals(cty.StringVal("net.neoforged")))
	require.Len(t, bt.Params, 1)
	assert.Equal(t, []string{"stable", "beta"}, bt.Params[0].Options)
	assert.Equal(t, filepath.Join(dir, "main.hcl"), bt.Source)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "syntax error",
			content: `build_type "Build" {`,
			errText: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			content: `pipeline "x" {}`,
			errText: "failed to decode HCL file",
		},
		{
			name:    "feature without type",
			content: `feature "x" {}`,
			errText: "failed to decode HCL file",
		},
		{
			name: "external template with steps",
			content: `template "Shared" {
  external = true
  step "gradle" "build" {}
}`,
			errText: "cannot declare steps",
		},
		{
			name:    "params is not an object",
			content: `build_type "Build" { params = "x" }`,
			errText: "params must be an object",
		},
		{
			name: "two project blocks",
			content: `project "A" {}
project "B" {}`,
			errText: "only one project block",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "main.hcl", tc.content)
			_, err := NewLoader().Load(testContext(), path)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.errText)
		})
	}
}

func TestLoad_ProjectInTwoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `project "A" {}`)
	writeFile(t, dir, "b.hcl", `project "B" {}`)

	_, err := NewLoader().Load(testContext(), dir)
	assert.ErrorContains(t, err, "is declared in")
}
