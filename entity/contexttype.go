package entity

import (
	"github.com/tsinghua-fib-lab/fuzzylts/clock"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
}
