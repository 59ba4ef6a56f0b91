package approach

import (
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
)

// GapDecision 间隙切断评估结果
type GapDecision int32

const (
	GapNone      GapDecision = iota // 不切断
	GapTerminate                    // 立即切断当前绿灯相位
)

// GapState 间隙切断状态机的当前状态（只读视图，供调试与测试）
type GapState int32

const (
	StateMinGreenHold  GapState = iota // 最小绿灯保持期，绝不切断
	StateEligible                      // 已过最小绿灯，等待空闲
	StateCountingEmpty                 // 正在累计连续空闲时间
)

// State 根据计时器与配置给出状态机当前状态
func State(t *PhaseTimer, cfg config.GapOut) GapState {
	switch {
	case t.ElapsedGreen < cfg.MinGreen:
		return StateMinGreenHold
	case t.EmptyDuration > 0:
		return StateCountingEmpty
	default:
		return StateEligible
	}
}

// EvaluateGapOut 执行一步间隙切断评估
// 功能：推进计时器并判断是否应提前切断当前绿灯相位
// 参数：t-相位计时器，state-本步聚合交通状态，cfg-间隙切断配置，dt-步长（秒）
// 返回：GapTerminate表示应立即切换到下一相位（一次性），否则GapNone
// 算法说明：
// 1. 以推进前的ElapsedGreen判定是否已过最小绿灯（硬下限，空闲再久也不提前）
// 2. ElapsedGreen无条件累加一个步长
// 3. 已过最小绿灯且观测为空时EmptyDuration累加，否则清零回到Eligible
//    （倒计时不粘滞：任何非空观测都会完整重置空闲计时）
// 4. 已过最小绿灯且EmptyDuration达到阈值时切断
// 说明：除计时器的两个时间字段外不修改任何状态；切断后由调用方重置计时器
func EvaluateGapOut(t *PhaseTimer, state entity.TrafficState, cfg config.GapOut, dt float64) GapDecision {
	eligible := t.ElapsedGreen >= cfg.MinGreen
	t.ElapsedGreen += dt
	if eligible && state.Empty() {
		t.EmptyDuration += dt
	} else {
		t.EmptyDuration = 0
	}
	if eligible && t.EmptyDuration >= cfg.GapTimeout {
		return GapTerminate
	}
	return GapNone
}
