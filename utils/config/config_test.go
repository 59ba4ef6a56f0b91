package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
	"gopkg.in/yaml.v2"
)

const configYAML = `
control:
  step:
    start: 0
    total: 3600
    interval: 1
network:
  file: data/net.xml
  tls: ["J1"]
fuzzy:
  functions:
    vehicles:
      lmin: 0
      lmax: 30
      levels: [vlow, low, medium, high, vhigh]
    arrival:
      lmin: 0
      lmax: 1
      levels: [vlow, low, medium, high, vhigh]
    green:
      lmin: 15
      lmax: 50
      levels: [vlow, low, medium, high, vhigh]
  rules:
    - {vehicles: vlow, arrival: vlow, green: vlow}
    - {vehicles: vhigh, arrival: vhigh, green: vhigh, weight: 0.8}
gapout:
  min_green: 2
  gap_timeout: 2
`

func parse(t *testing.T) config.Config {
	var c config.Config
	assert.Nil(t, yaml.UnmarshalStrict([]byte(configYAML), &c))
	return c
}

func TestUnmarshal(t *testing.T) {
	c := parse(t)
	assert.Equal(t, int32(3600), c.Control.Step.Total)
	assert.Equal(t, "data/net.xml", c.Network.File)
	assert.Equal(t, []string{"J1"}, c.Network.TLs)
	assert.Equal(t, 30.0, c.Fuzzy.Functions["vehicles"].Max)
	assert.Equal(t, 2, len(c.Fuzzy.Rules))
	assert.Equal(t, 0.8, c.Fuzzy.Rules[1].Weight)
	assert.Equal(t, 2.0, c.GapOut.MinGreen)
}

func TestRuntimeConfigDefaults(t *testing.T) {
	rc, err := config.NewRuntimeConfig(parse(t))
	assert.Nil(t, err)
	assert.Equal(t, 2, rc.All.Network.MaxDepth)
	// default_green缺省取green论域下界
	assert.Equal(t, 15.0, rc.All.Fuzzy.DefaultGreen)
	assert.Equal(t, 0.1, rc.All.Engine.P)
	assert.Equal(t, 5.0, rc.All.Engine.Persist)
}

func TestValidateErrors(t *testing.T) {
	base := parse(t)

	c := base
	c.Control.Step.Interval = 0
	_, err := config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.Network.File = ""
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.Fuzzy.Rules = nil
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.Fuzzy.Rules = []config.RuleDef{{Vehicles: "nope", Arrival: "vlow", Green: "vlow"}}
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.Fuzzy.Rules = []config.RuleDef{{Vehicles: "vlow", Arrival: "vlow", Green: "vlow", Weight: -1}}
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.GapOut.GapTimeout = -1
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)

	c = base
	c.Output.Mongo = &config.MongoOutput{URI: "mongodb://localhost"}
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestValidateFunctionShapes(t *testing.T) {
	base := parse(t)

	set := func(name string, def config.FunctionDef) config.Config {
		c := base
		functions := make(map[string]config.FunctionDef, len(base.Fuzzy.Functions))
		for k, v := range base.Fuzzy.Functions {
			functions[k] = v
		}
		functions[name] = def
		c.Fuzzy.Functions = functions
		return c
	}

	_, err := config.NewRuntimeConfig(set("vehicles", config.FunctionDef{Min: 10, Max: 10, Levels: []string{"a", "b"}}))
	assert.ErrorIs(t, err, config.ErrConfig)

	_, err = config.NewRuntimeConfig(set("arrival", config.FunctionDef{Min: 0, Max: 1, Levels: []string{"only"}}))
	assert.ErrorIs(t, err, config.ErrConfig)

	_, err = config.NewRuntimeConfig(set("green", config.FunctionDef{Min: 0, Max: 50, Levels: []string{"a", "b"}}))
	assert.ErrorIs(t, err, config.ErrConfig)

	c := base
	delete(c.Fuzzy.Functions, "green")
	_, err = config.NewRuntimeConfig(c)
	assert.ErrorIs(t, err, config.ErrConfig)
}
