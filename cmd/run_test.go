package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/flexbid/core/model"
)

func TestPrintResult(t *testing.T) {
	res := model.WeekResult{
		RunID: "r1",
		Days: []model.DayOutcome{
			{Weekday: model.Monday, Solution: &model.DaySolution{Income: 12.5}, Blend: &model.BlendedDay{}},
			{Weekday: model.Tuesday, Err: errors.New("infeasible")},
		},
	}
	var buf bytes.Buffer
	printResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "run r1")
	assert.Regexp(t, `Monday\s+ok\s+12\.50`, out)
	assert.Regexp(t, `Tuesday\s+failed\s+-\s+infeasible`, out)
	assert.Regexp(t, `total\s+12\.50`, out)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Cleanup(func() { cfgPath, outDir, outFormat = "config.yaml", "", "" })
	cfgPath, outDir, outFormat = "", "/tmp/out", "yaml"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "yaml", cfg.Export.Format)

	outFormat = "xml"
	_, err = loadConfig()
	assert.Error(t, err)
}
