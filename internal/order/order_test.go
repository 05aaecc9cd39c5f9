package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batcher/batcher/internal/config"
)

func cfgWithTasks(tasks map[string]*config.TaskDef) *config.Configuration {
	for name, t := range tasks {
		t.Name = name
	}
	return &config.Configuration{ProjectName: "demo", Tasks: tasks}
}

func TestResolve_LinearPrerequisites(t *testing.T) {
	cfg := cfgWithTasks(map[string]*config.TaskDef{
		"migrate": {},
		"seed":    {Prerequisites: []string{"migrate"}},
		"test":    {Prerequisites: []string{"seed"}},
	})

	got, err := Resolve(cfg, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrate", "seed", "test"}, got)
}

func TestResolve_DiamondRunsOnce(t *testing.T) {
	cfg := cfgWithTasks(map[string]*config.TaskDef{
		"build": {},
		"unit":  {Prerequisites: []string{"build"}},
		"lint":  {Prerequisites: []string{"build"}},
		"ci":    {Prerequisites: []string{"unit", "lint"}},
	})

	got, err := Resolve(cfg, "ci")
	require.NoError(t, err)

	count := 0
	for _, name := range got {
		if name == "build" {
			count++
		}
	}
	assert.Equal(t, 1, count, "build should only appear once in %v", got)
	assert.Equal(t, "ci", got[len(got)-1])
}

func TestResolve_CycleDetected(t *testing.T) {
	cfg := cfgWithTasks(map[string]*config.TaskDef{
		"a": {Prerequisites: []string{"b"}},
		"b": {Prerequisites: []string{"a"}},
	})

	_, err := Resolve(cfg, "a")
	require.Error(t, err)
	assert.IsType(t, &CycleError{}, err)
}

func TestResolve_UnknownPrerequisite(t *testing.T) {
	cfg := cfgWithTasks(map[string]*config.TaskDef{
		"a": {Prerequisites: []string{"ghost"}},
	})

	_, err := Resolve(cfg, "a")
	require.Error(t, err)
	assert.IsType(t, &UnknownTaskError{}, err)
}
