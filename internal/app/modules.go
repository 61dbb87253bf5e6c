package app

import (
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/modules/discord"
	"github.com/specialistvlad/pipedef/modules/githubissues"
	"github.com/specialistvlad/pipedef/modules/schedule"
	"github.com/specialistvlad/pipedef/modules/triggerbuild"
)

// coreModules is the definitive list of feature kinds compiled into the
// pipedef binary.
var coreModules = []featurekind.Module{
	&triggerbuild.Module{},
	&schedule.Module{},
	&discord.Module{},
	&githubissues.Module{},
}
