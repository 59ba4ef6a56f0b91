package config

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// 配置错误为启动期致命错误，调用方必须在第一个模拟步之前终止
var ErrConfig = errors.New("invalid config")

// 模糊变量的固定名称
const (
	VarVehicles = "vehicles" // 排队车辆数
	VarArrival  = "arrival"  // 到达率
	VarGreen    = "green"    // 绿灯时长（输出）
)

// RuntimeConfig 运行时配置
// 功能：存储校验后的运行时配置，补全缺省值
type RuntimeConfig struct {
	All Config // 全部配置
	C   Control
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：校验配置并补全缺省值
// 参数：config-原始配置对象
// 返回：运行时配置指针，配置非法时返回ErrConfig包装错误
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Network.MaxDepth == 0 {
		config.Network.MaxDepth = 2
	}
	if config.Fuzzy.DefaultGreen == 0 {
		config.Fuzzy.DefaultGreen = config.Fuzzy.Functions[VarGreen].Min
	}
	if config.Engine.P == 0 {
		config.Engine.P = 0.1
	}
	if config.Engine.Persist == 0 {
		config.Engine.Persist = 5
	}
	return &RuntimeConfig{All: config, C: config.Control}, nil
}

// Validate 校验配置
// 功能：执行全部启动期配置检查，任一失败即返回ErrConfig包装错误
// 算法说明：
// 1. 时间步长必须为正
// 2. 三个模糊变量必须齐备且形状合法（lmin<lmax，至少两个标签）
// 3. 规则库非空，且所有标签能在对应变量中解析，权重非负
// 4. 绿灯输出边界满足 0 < lmin <= lmax
// 5. 间隙切断阈值非负
func (c Config) Validate() error {
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("%w: control.step.interval must be positive, got %v", ErrConfig, c.Control.Step.Interval)
	}
	if c.Network.File == "" {
		return fmt.Errorf("%w: network.file is required", ErrConfig)
	}
	if c.Network.MaxDepth < 0 {
		return fmt.Errorf("%w: network.max_depth must be non-negative, got %d", ErrConfig, c.Network.MaxDepth)
	}
	for _, name := range []string{VarVehicles, VarArrival, VarGreen} {
		f, ok := c.Fuzzy.Functions[name]
		if !ok {
			return fmt.Errorf("%w: fuzzy.functions.%s is required", ErrConfig, name)
		}
		if f.Min >= f.Max {
			return fmt.Errorf("%w: fuzzy.functions.%s: lmin %v >= lmax %v", ErrConfig, name, f.Min, f.Max)
		}
		if len(f.Levels) < 2 {
			return fmt.Errorf("%w: fuzzy.functions.%s: at least 2 levels required, got %d", ErrConfig, name, len(f.Levels))
		}
		if len(lo.Uniq(f.Levels)) != len(f.Levels) {
			return fmt.Errorf("%w: fuzzy.functions.%s: duplicated levels", ErrConfig, name)
		}
	}
	green := c.Fuzzy.Functions[VarGreen]
	if green.Min <= 0 {
		return fmt.Errorf("%w: fuzzy.functions.green: lmin must be positive, got %v", ErrConfig, green.Min)
	}
	if len(c.Fuzzy.Rules) == 0 {
		return fmt.Errorf("%w: fuzzy.rules must not be empty", ErrConfig)
	}
	for i, r := range c.Fuzzy.Rules {
		if !lo.Contains(c.Fuzzy.Functions[VarVehicles].Levels, r.Vehicles) {
			return fmt.Errorf("%w: fuzzy.rules[%d]: unknown vehicles level %q", ErrConfig, i, r.Vehicles)
		}
		if !lo.Contains(c.Fuzzy.Functions[VarArrival].Levels, r.Arrival) {
			return fmt.Errorf("%w: fuzzy.rules[%d]: unknown arrival level %q", ErrConfig, i, r.Arrival)
		}
		if !lo.Contains(green.Levels, r.Green) {
			return fmt.Errorf("%w: fuzzy.rules[%d]: unknown green level %q", ErrConfig, i, r.Green)
		}
		if r.Weight < 0 {
			return fmt.Errorf("%w: fuzzy.rules[%d]: negative weight %v", ErrConfig, i, r.Weight)
		}
	}
	if c.Fuzzy.DefaultGreen < 0 {
		return fmt.Errorf("%w: fuzzy.default_green must be non-negative, got %v", ErrConfig, c.Fuzzy.DefaultGreen)
	}
	if c.GapOut.MinGreen < 0 || c.GapOut.GapTimeout < 0 {
		return fmt.Errorf("%w: gapout thresholds must be non-negative, got min_green=%v gap_timeout=%v",
			ErrConfig, c.GapOut.MinGreen, c.GapOut.GapTimeout)
	}
	if c.Output.Mongo != nil {
		m := c.Output.Mongo
		if m.URI == "" || m.DB == "" || m.Col == "" {
			return fmt.Errorf("%w: output.mongo requires uri, db and col", ErrConfig)
		}
	}
	return nil
}
