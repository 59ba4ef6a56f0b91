package fuzzy

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

var log = logrus.WithField("module", "fuzzy")

// 去模糊化时对输出论域的采样点数
const centroidSamples = 1000

// Rule 单条模糊规则：IF vehicles AND arrival THEN green
type Rule struct {
	Vehicles string  // 排队变量标签
	Arrival  string  // 到达率变量标签
	Green    string  // 输出标签
	Weight   float64 // 蕴含权重，构建时缺省补为1
}

// Bounds 输出时长边界（秒）
type Bounds struct {
	Min float64
	Max float64
}

// Engine Mamdani模糊推理引擎
// 功能：把(排队数, 到达率)映射为建议绿灯时长
// 说明：构建后不可变且无内部状态，Infer可跨进口道/线程共享调用
type Engine struct {
	vehicles Variable
	arrival  Variable
	green    Variable
	rules    []Rule
	bounds   Bounds
	// 所有规则触发强度为0（输入落在全部规则支撑集之外）时的缺省输出
	defaultOut float64
}

// New 构建模糊推理引擎
// 功能：组装并校验变量、规则库与输出边界
// 参数：vehicles/arrival-输入变量，green-输出变量，rules-规则库，
// bounds-输出边界，defaultOut-退化时的缺省输出
// 返回：推理引擎；规则库为空、标签无法解析或边界非法时返回错误（启动期致命）
func New(vehicles, arrival, green Variable, rules []Rule, bounds Bounds, defaultOut float64) (*Engine, error) {
	if len(rules) == 0 {
		return nil, ErrEmptyRuleBase
	}
	if bounds.Min <= 0 || bounds.Min > bounds.Max {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrBadBounds, bounds.Min, bounds.Max)
	}
	rules = lo.Map(rules, func(r Rule, _ int) Rule {
		if r.Weight == 0 {
			r.Weight = 1
		}
		return r
	})
	for i, r := range rules {
		if !vehicles.hasLabel(r.Vehicles) {
			return nil, fmt.Errorf("%w: rule %d: vehicles %q", ErrUnknownLabel, i, r.Vehicles)
		}
		if !arrival.hasLabel(r.Arrival) {
			return nil, fmt.Errorf("%w: rule %d: arrival %q", ErrUnknownLabel, i, r.Arrival)
		}
		if !green.hasLabel(r.Green) {
			return nil, fmt.Errorf("%w: rule %d: green %q", ErrUnknownLabel, i, r.Green)
		}
	}
	e := &Engine{
		vehicles:   vehicles,
		arrival:    arrival,
		green:      green,
		rules:      rules,
		bounds:     bounds,
		defaultOut: lo.Clamp(defaultOut, bounds.Min, bounds.Max),
	}
	e.checkCoverage()
	return e, nil
}

// FromConfig 根据知识库配置构建推理引擎
// 说明：变量按(lmin, lmax, levels)生成，输出边界取green变量的论域
func FromConfig(cfg config.Fuzzy) (*Engine, error) {
	vehicles, err := newVariableFromDef(config.VarVehicles, cfg.Functions[config.VarVehicles])
	if err != nil {
		return nil, err
	}
	arrival, err := newVariableFromDef(config.VarArrival, cfg.Functions[config.VarArrival])
	if err != nil {
		return nil, err
	}
	green, err := newVariableFromDef(config.VarGreen, cfg.Functions[config.VarGreen])
	if err != nil {
		return nil, err
	}
	rules := lo.Map(cfg.Rules, func(r config.RuleDef, _ int) Rule {
		return Rule{Vehicles: r.Vehicles, Arrival: r.Arrival, Green: r.Green, Weight: r.Weight}
	})
	return New(vehicles, arrival, green, rules, Bounds{Min: green.Min, Max: green.Max}, cfg.DefaultGreen)
}

func newVariableFromDef(name string, def config.FunctionDef) (Variable, error) {
	return NewVariable(name, def.Min, def.Max, def.Levels)
}

// checkCoverage 检查规则库是否覆盖全部输入标签组合
// 说明：存在缺省输出，未覆盖组合只降级为启动期告警
func (e *Engine) checkCoverage() {
	covered := make(map[[2]string]struct{}, len(e.rules))
	for _, r := range e.rules {
		covered[[2]string{r.Vehicles, r.Arrival}] = struct{}{}
	}
	for _, v := range e.vehicles.Sets {
		for _, a := range e.arrival.Sets {
			if _, ok := covered[[2]string{v.Label, a.Label}]; !ok {
				log.Warnf("rule base does not cover (%s, %s), default %vs applies", v.Label, a.Label, e.defaultOut)
			}
		}
	}
}

// Bounds 返回输出时长边界
func (e *Engine) Bounds() Bounds {
	return e.bounds
}

// Default 返回退化时的缺省输出
func (e *Engine) Default() float64 {
	return e.defaultOut
}

// Infer 执行一次Mamdani推理
// 功能：把(排队数, 到达率)映射为建议绿灯时长（秒）
// 参数：queue-排队车辆数，rate-到达率
// 返回：建议绿灯时长，始终位于[bounds.Min, bounds.Max]内
// 算法说明：
// 1. 模糊化：计算两个输入对各自全部标签的隶属度
// 2. 规则触发：每条规则取前件隶属度的最小值（AND），乘以规则权重
// 3. 聚合：同一输出标签取各规则触发强度的最大值
// 4. 去模糊化：对截断后的聚合输出集在论域上采样求质心
// 5. 全部触发强度为0时直接返回缺省输出，避免质心除零
// 说明：纯函数，相同输入必得相同输出
func (e *Engine) Infer(queue, rate float64) float64 {
	degV := e.vehicles.Fuzzify(queue)
	degA := e.arrival.Fuzzify(rate)

	strength := make(map[string]float64, len(e.green.Sets))
	for _, r := range e.rules {
		s := math.Min(degV[r.Vehicles], degA[r.Arrival]) * r.Weight
		if s > strength[r.Green] {
			strength[r.Green] = s
		}
	}

	num, den := 0.0, 0.0
	pitch := (e.green.Max - e.green.Min) / float64(centroidSamples-1)
	for i := 0; i < centroidSamples; i++ {
		x := e.green.Min + pitch*float64(i)
		mu := 0.0
		for _, set := range e.green.Sets {
			s := strength[set.Label]
			if s <= 0 {
				continue
			}
			mu = math.Max(mu, math.Min(s, set.Degree(x)))
		}
		num += x * mu
		den += mu
	}
	if den == 0 {
		// 输入落在全部规则支撑集之外
		log.Debugf("no rule fired for queue=%v rate=%v, default %vs", queue, rate, e.defaultOut)
		return e.defaultOut
	}
	return lo.Clamp(num/den, e.bounds.Min, e.bounds.Max)
}
