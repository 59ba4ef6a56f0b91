package task_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/fuzzylts/task"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

const netXML = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.9">
    <edge id="A#1" from="n1" to="n2">
        <lane id="A#1_0" index="0" speed="13.89" length="100"/>
        <lane id="A#1_1" index="1" speed="13.89" length="100"/>
    </edge>
    <edge id="B" from="n2" to="n3">
        <lane id="B_0" index="0" speed="13.89" length="100"/>
    </edge>
    <tlLogic id="J1" type="static" programID="0" offset="0">
        <phase duration="31" state="Gr"/>
        <phase duration="4" state="yr"/>
        <phase duration="25" state="rG"/>
    </tlLogic>
    <connection from="A#1" to="B" fromLane="0" toLane="0" dir="s" state="o" tl="J1" linkIndex="0"/>
    <connection from="A#1" to="B" fromLane="1" toLane="0" dir="l" state="o" tl="J1" linkIndex="1"/>
</net>`

func newTestConfig(t *testing.T) (config.Config, string) {
	dir := t.TempDir()
	netPath := filepath.Join(dir, "test.net.xml")
	assert.Nil(t, os.WriteFile(netPath, []byte(netXML), 0o644))
	levels := []string{"vlow", "low", "medium", "high", "vhigh"}
	return config.Config{
		Control: config.Control{Step: config.ControlStep{Start: 0, Total: 100, Interval: 1}},
		Network: config.NetworkInput{File: netPath},
		Fuzzy: config.Fuzzy{
			Functions: map[string]config.FunctionDef{
				config.VarVehicles: {Min: 0, Max: 30, Levels: levels},
				config.VarArrival:  {Min: 0, Max: 1, Levels: levels},
				config.VarGreen:    {Min: 15, Max: 50, Levels: levels},
			},
			Rules: func() []config.RuleDef {
				var rules []config.RuleDef
				for vi, v := range levels {
					for ai, a := range levels {
						rules = append(rules, config.RuleDef{Vehicles: v, Arrival: a, Green: levels[lo.Max([]int{vi, ai})]})
					}
				}
				return rules
			}(),
		},
		GapOut: config.GapOut{MinGreen: 2, GapTimeout: 2},
		Output: config.Output{CSVDir: dir},
		Engine: config.Engine{Seed: 42, P: 0.2},
	}, dir
}

func TestNewContext(t *testing.T) {
	cfg, _ := newTestConfig(t)
	ctx, err := task.NewContext("job0", cfg)
	assert.Nil(t, err)
	// 相位0和2受控，黄灯相位1不受控
	assert.Equal(t, 2, len(ctx.Manager().Approaches()))
	assert.Equal(t, int32(100), ctx.Clock().END_STEP)
}

func TestNewContextErrors(t *testing.T) {
	cfg, _ := newTestConfig(t)
	cfg.Control.Step.Interval = 0
	_, err := task.NewContext("job0", cfg)
	assert.ErrorIs(t, err, config.ErrConfig)

	cfg, _ = newTestConfig(t)
	cfg.Network.File = "/nonexistent/net.xml"
	_, err = task.NewContext("job0", cfg)
	assert.NotNil(t, err)

	cfg, _ = newTestConfig(t)
	cfg.Network.TLs = []string{"nope"}
	_, err = task.NewContext("job0", cfg)
	assert.NotNil(t, err)
}

func TestRunProducesDecisions(t *testing.T) {
	cfg, dir := newTestConfig(t)
	ctx, err := task.NewContext("job0", cfg)
	assert.Nil(t, err)
	assert.Nil(t, ctx.Run())
	assert.Equal(t, int32(100), ctx.Clock().Step)

	f, err := os.Open(filepath.Join(dir, "job0.csv"))
	assert.Nil(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	assert.Nil(t, err)
	// 表头 + 每步每进口道一条记录
	assert.Equal(t, 1+100*2, len(rows))
	kinds := lo.Uniq(lo.Map(rows[1:], func(row []string, _ int) string { return row[4] }))
	for _, k := range kinds {
		assert.Contains(t, []string{"hold", "extend", "gap_terminate"}, k)
	}
	// 合成交通下至少发生过一次推理
	assert.Contains(t, kinds, "extend")
}
