package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/params"
	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/specialistvlad/pipedef/modules/githubissues"
	"github.com/specialistvlad/pipedef/modules/schedule"
	"github.com/specialistvlad/pipedef/modules/triggerbuild"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Build type ids of the TrainingWheels fixture.
const (
	BuildID        = "TrainingWheels__Build"
	PullRequestsID = "TrainingWheels__PullRequests"
)

// Context returns a context carrying a logger that discards everything.
func Context() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

// TrainingWheels builds a small project modelled on the TrainingWheels CI
// configuration: six project parameters, a GitHub issue tracker, a Build
// type overriding docker_jdk_version to 17 and a PullRequests type that
// depends on it.
func TrainingWheels(t *testing.T) *builder.ResolvedProject {
	t.Helper()

	reg := params.NewRegistry()
	for _, p := range []params.Parameter{
		{Name: "git_main_branch", Kind: params.KindText, Default: cty.StringVal("main"), Label: "Git Main Branch", Display: params.DisplayHidden},
		{Name: "github_repository_name", Kind: params.KindText, Default: cty.StringVal("TrainingWheels"), Display: params.DisplayHidden},
		{Name: "env.PUBLISHED_JAVA_ARTIFACT_ID", Kind: params.KindText, Default: cty.StringVal("trainingwheels"), Display: params.DisplayHidden},
		{Name: "env.PUBLISHED_JAVA_GROUP", Kind: params.KindText, Default: cty.StringVal("net.minecraftforge"), Display: params.DisplayHidden},
		{Name: "docker_jdk_version", Kind: params.KindText, Default: cty.StringVal("8"), Label: "Gradle JDK Version", Display: params.DisplayHidden},
		{Name: "docker_gradle_version", Kind: params.KindText, Default: cty.StringVal("8.0.2"), Display: params.DisplayHidden, AllowEmpty: true, Format: params.FormatSemver},
	} {
		require.NoError(t, reg.Declare(params.ProjectScope, p))
	}
	require.NoError(t, reg.Override(params.BuildTypeScope(BuildID), "docker_jdk_version", cty.StringVal("17")))

	resolver := templates.NewResolver(nil)
	for _, id := range []string{"MinecraftForge_SetupGradleUtilsCiEnvironmen", "MinecraftForge_BuildMainBranches"} {
		require.NoError(t, resolver.RegisterExternal(id))
	}
	require.NoError(t, resolver.Register(templates.Template{
		ID: "BuildUsingGradle",
		Steps: []templates.Step{{
			ID:     "gradle_build",
			Kind:   "gradle",
			Params: map[string]string{"tasks": "build", "jdk": "%docker_jdk_version%"},
		}},
		Features: []templates.Feature{{ID: "swabra", Kind: "swabra", Overridable: true}},
	}))

	kinds := featurekind.New()
	for _, m := range []featurekind.Module{&triggerbuild.Module{}, &schedule.Module{}, &githubissues.Module{}} {
		m.Register(kinds)
	}

	b := builder.New(builder.ProjectInfo{ID: "TrainingWheels", Name: "TrainingWheels", Version: "2021.2"}, reg, resolver, kinds)
	require.NoError(t, b.AddProjectFeature(templates.Feature{
		ID:     "TrainingWheels__IssueTracker",
		Kind:   githubissues.KindName,
		Params: map[string]string{"repositoryURL": "https://github.com/MinecraftForge/%github_repository_name%"},
	}))
	require.NoError(t, b.AddBuildType(builder.BuildTypeDef{
		ID:        BuildID,
		Name:      "Build",
		Templates: []string{"MinecraftForge_SetupGradleUtilsCiEnvironmen", "MinecraftForge_BuildMainBranches", "BuildUsingGradle"},
		Features: []templates.Feature{{
			ID:   "trigger_base_publish",
			Kind: triggerbuild.KindName,
			Params: map[string]string{
				"triggers":   "MinecraftForge_FilesGenerator_GeneratePages",
				"parameters": "env.PUBLISHED_JAVA_ARTIFACT_ID=TrainingWheels-Base\nenv.PUBLISHED_JAVA_GROUP",
			},
		}},
	}))
	require.NoError(t, b.AddBuildType(builder.BuildTypeDef{
		ID:        PullRequestsID,
		Name:      "Pull Requests",
		Templates: []string{"MinecraftForge_SetupGradleUtilsCiEnvironmen", "BuildUsingGradle"},
		DependsOn: []string{BuildID},
		Triggers: []templates.Feature{
			{ID: "pr_vcs", Kind: schedule.VCSKind, Params: map[string]string{"branchFilter": "+:pull/*"}},
			{ID: "nightly", Kind: schedule.ScheduleKind, Params: map[string]string{"cron": "0 3 * * *"}},
		},
	}))

	rp, err := b.Build(Context())
	require.NoError(t, err)
	return rp
}
