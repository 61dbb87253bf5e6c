package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/snapshot"
	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/specialistvlad/pipedef/modules/schedule"
)

func registerRoutes(router *gin.Engine, rp *builder.ResolvedProject, store *snapshot.Store) {
	router.GET("/health", handleHealth())

	api := router.Group("/api")
	api.GET("/project", handleProject(rp))
	api.GET("/project/parameters/:name", handleParameter(rp, ""))
	api.GET("/build-types", handleBuildTypeList(rp))
	api.GET("/build-types/:id", handleBuildType(rp))
	api.GET("/build-types/:id/parameters/:name", handleParameter(rp, "id"))
	api.GET("/build-types/:id/schedule", handleSchedule(rp, time.Now))

	if store != nil {
		api.GET("/snapshots", handleSnapshotList(rp, store))
		api.GET("/snapshots/:id", handleSnapshot(store))
	}
}

type projectResponse struct {
	Project    builder.ProjectInfo     `json:"project"`
	Params     []builder.ResolvedParam `json:"params"`
	Features   []templates.Feature     `json:"features"`
	BuildOrder []string                `json:"buildOrder"`
}

type buildTypeSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Templates  []string `json:"templates"`
	DependsOn  []string `json:"dependsOn"`
	Dependents []string `json:"dependents"`
}

type scheduleEntry struct {
	Trigger  string     `json:"trigger"`
	Cron     string     `json:"cron"`
	Timezone string     `json:"timezone,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
	Error    string     `json:"error,omitempty"`
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func handleProject(rp *builder.ResolvedProject) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, projectResponse{
			Project:    rp.Project(),
			Params:     rp.Params(),
			Features:   rp.Features(),
			BuildOrder: rp.BuildOrder(),
		})
	}
}

func handleBuildTypeList(rp *builder.ResolvedProject) gin.HandlerFunc {
	return func(c *gin.Context) {
		bts := rp.BuildTypes()
		out := make([]buildTypeSummary, 0, len(bts))
		for _, bt := range bts {
			out = append(out, buildTypeSummary{
				ID:         bt.ID,
				Name:       bt.Name,
				Templates:  nonNil(bt.Templates),
				DependsOn:  nonNil(bt.DependsOn),
				Dependents: nonNil(bt.Dependents),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleBuildType(rp *builder.ResolvedProject) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		bt, ok := rp.BuildType(id)
		if !ok {
			notFound(c, "build type %q not found", id)
			return
		}
		c.JSON(http.StatusOK, bt)
	}
}

// handleSchedule lists the build type's cron triggers with their next run
// after now.
func handleSchedule(rp *builder.ResolvedProject, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		bt, ok := rp.BuildType(id)
		if !ok {
			notFound(c, "build type %q not found", id)
			return
		}
		out := []scheduleEntry{}
		for _, trigger := range bt.Triggers {
			if trigger.Kind != schedule.ScheduleKind {
				continue
			}
			entry := scheduleEntry{Trigger: trigger.ID, Cron: trigger.Params["cron"], Timezone: trigger.Params["timezone"]}
			next, err := schedule.NextRun(trigger, now())
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.NextRun = &next
			}
			out = append(out, entry)
		}
		c.JSON(http.StatusOK, out)
	}
}

// handleParameter serves one parameter. idParam names the route parameter
// holding the build type id; empty selects the project scope.
func handleParameter(rp *builder.ResolvedProject, idParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if idParam != "" {
			id = c.Param(idParam)
			if _, ok := rp.BuildType(id); !ok {
				notFound(c, "build type %q not found", id)
				return
			}
		}
		name := c.Param("name")
		p, ok := rp.Parameter(id, name)
		if !ok {
			notFound(c, "parameter %q not found", name)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleSnapshotList(rp *builder.ResolvedProject, store *snapshot.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps, err := store.List(c.Request.Context(), rp.Project().ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range snaps {
			snaps[i].Content = ""
		}
		c.JSON(http.StatusOK, snaps)
	}
}

func handleSnapshot(store *snapshot.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot id must be a positive integer"})
			return
		}
		snap, err := store.Get(c.Request.Context(), uint(id))
		if errors.Is(err, snapshot.ErrNotFound) {
			notFound(c, "snapshot %d not found", id)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func notFound(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf(format, args...)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
