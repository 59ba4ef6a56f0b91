// Mamdani模糊推理引擎：显式不可变的隶属度函数与规则库，
// 启动时校验一次，推理过程为固定算法（模糊化->规则触发->聚合->去模糊化）
package fuzzy

import (
	"errors"
	"fmt"
)

var (
	ErrBadShape      = errors.New("fuzzy: non-monotone membership breakpoints")
	ErrEmptyRuleBase = errors.New("fuzzy: empty rule base")
	ErrUnknownLabel  = errors.New("fuzzy: unknown label")
	ErrBadBounds     = errors.New("fuzzy: invalid output bounds")
)

// MembershipSet 单个语言标签的梯形隶属度函数
// 说明：断点满足A<=B<=C<=D；B==C时退化为三角形
type MembershipSet struct {
	Label      string
	A, B, C, D float64
}

// Degree 计算x对该标签的隶属度
// 返回：[0,1]内的隶属度，x在支撑集[A,D]之外时为0
func (m MembershipSet) Degree(x float64) float64 {
	if x < m.A || x > m.D {
		return 0
	}
	switch {
	case x < m.B:
		return (x - m.A) / (m.B - m.A)
	case x <= m.C:
		return 1
	case m.D == m.C:
		return 1
	default:
		return (m.D - x) / (m.D - m.C)
	}
}

func (m MembershipSet) validate() error {
	if m.A > m.B || m.B > m.C || m.C > m.D {
		return fmt.Errorf("%w: %s (%v, %v, %v, %v)", ErrBadShape, m.Label, m.A, m.B, m.C, m.D)
	}
	return nil
}

// Variable 一个模糊语言变量及其全部隶属度函数
// 说明：启动时构建并校验，此后只读
type Variable struct {
	Name string
	Min  float64 // 论域下界
	Max  float64 // 论域上界
	Sets []MembershipSet
}

// NewVariable 在[min, max]论域上按标签等距生成语言变量
// 功能：按固定布局生成隶属度函数
// 参数：name-变量名，min/max-论域边界，levels-有序语言标签
// 返回：生成的变量，参数非法时返回错误
// 算法说明（pitch = (max-min)/(n-1)）：
// 1. 首标签：左肩梯形 [min, min, min+pitch, min+2*pitch]
// 2. 末标签：右肩梯形 [max-2*pitch, max-pitch, max, max]
// 3. 中间标签i：三角形 [min+pitch*(i-1), min+pitch*i, min+pitch*(i+1)]
func NewVariable(name string, min, max float64, levels []string) (Variable, error) {
	if min >= max {
		return Variable{}, fmt.Errorf("fuzzy: variable %s: min %v >= max %v", name, min, max)
	}
	if len(levels) < 2 {
		return Variable{}, fmt.Errorf("fuzzy: variable %s: at least 2 levels required", name)
	}
	pitch := (max - min) / float64(len(levels)-1)
	sets := make([]MembershipSet, len(levels))
	for i, level := range levels {
		switch i {
		case 0:
			sets[i] = MembershipSet{Label: level, A: min, B: min, C: min + pitch, D: min + 2*pitch}
		case len(levels) - 1:
			sets[i] = MembershipSet{Label: level, A: max - 2*pitch, B: max - pitch, C: max, D: max}
		default:
			sets[i] = MembershipSet{
				Label: level,
				A:     min + pitch*float64(i-1),
				B:     min + pitch*float64(i),
				C:     min + pitch*float64(i),
				D:     min + pitch*float64(i+1),
			}
		}
	}
	return NewCustomVariable(name, min, max, sets)
}

// NewCustomVariable 用显式隶属度函数构建语言变量
// 返回：校验后的变量，断点非单调或标签重复时返回错误
func NewCustomVariable(name string, min, max float64, sets []MembershipSet) (Variable, error) {
	seen := make(map[string]struct{})
	for _, s := range sets {
		if err := s.validate(); err != nil {
			return Variable{}, fmt.Errorf("variable %s: %w", name, err)
		}
		if _, ok := seen[s.Label]; ok {
			return Variable{}, fmt.Errorf("fuzzy: variable %s: duplicated label %s", name, s.Label)
		}
		seen[s.Label] = struct{}{}
	}
	return Variable{Name: name, Min: min, Max: max, Sets: sets}, nil
}

// Fuzzify 计算x对每个标签的隶属度
// 返回：标签->隶属度映射（支撑集外为0）
func (v Variable) Fuzzify(x float64) map[string]float64 {
	res := make(map[string]float64, len(v.Sets))
	for _, s := range v.Sets {
		res[s.Label] = s.Degree(x)
	}
	return res
}

func (v Variable) hasLabel(label string) bool {
	for _, s := range v.Sets {
		if s.Label == label {
			return true
		}
	}
	return false
}
