package approach

import (
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/corridor"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/fuzzy"
)

var log = logrus.WithField("module", "approach")

// Approach 信控进口道
// 功能：一个受控相位的决策编排器，串联走廊归约、间隙切断与模糊推理，
// 并把决策转换为对外部引擎的指令
// 说明：独占持有本进口道的PhaseTimer；不同进口道之间无共享可变状态，
// 同一进口道必须严格按步序求值
type Approach struct {
	ctx entity.ITaskContext

	id       entity.ApproachID
	topology *corridor.ApproachTopology // 只读走廊拓扑
	engine   *fuzzy.Engine              // 共享的只读推理引擎
	gapout   config.GapOut

	timer PhaseTimer
}

// New 创建进口道
// 参数：ctx-任务上下文，topo-走廊拓扑，engine-模糊推理引擎，gapout-间隙切断配置
// 返回：初始化完成的进口道实例
func New(ctx entity.ITaskContext, topo *corridor.ApproachTopology, engine *fuzzy.Engine, gapout config.GapOut) *Approach {
	return &Approach{
		ctx:      ctx,
		id:       topo.ID,
		topology: topo,
		engine:   engine,
		gapout:   gapout,
		timer:    PhaseTimer{CurrentPhase: -1},
	}
}

// ID 获取进口道标识
func (a *Approach) ID() entity.ApproachID {
	return a.id
}

// Topology 获取走廊拓扑
func (a *Approach) Topology() *corridor.ApproachTopology {
	return a.topology
}

// Timer 获取相位计时器（供测试与调试读取）
func (a *Approach) Timer() *PhaseTimer {
	return &a.timer
}

// Step 执行一步决策评估
// 功能：完成观测->归约->间隙切断->模糊推理的单步决策流程
// 参数：eng-外部仿真引擎
// 返回：本步决策与决策依据的交通状态
// 算法说明：
// 1. 相位变化检测：引擎当前相位与计时器不一致（含引擎侧强制切换）则重置计时器
// 2. 非本进口道的绿灯相位：不干预，返回Hold
// 3. 走廊归约得到(排队数, 到达率)
// 4. 间隙切断优先：触发时立即下发切相指令并返回GapTerminate，不再调用模糊推理
// 5. 绿灯进入时（或已达到上次推理的目标时长时）推理新时长并下发SetDuration，
//    返回Extend；否则维持，返回Hold
func (a *Approach) Step(eng entity.IEngine) (entity.Decision, entity.TrafficState) {
	dt := a.ctx.Clock().DT
	phase, _ := eng.Phase(a.id.TL)
	if phase != a.timer.CurrentPhase {
		a.timer.Reset(phase)
	}
	if phase != a.id.Phase {
		return entity.Decision{Kind: entity.DecisionHold}, entity.TrafficState{}
	}

	snapshots := eng.Observe(a.id.TL)
	state := corridor.Reduce(a.topology, snapshots, dt)

	if EvaluateGapOut(&a.timer, state, a.gapout, dt) == GapTerminate {
		log.Debugf("[%s] gap-out: empty=%.2fs green=%.2fs", a.id, a.timer.EmptyDuration, a.timer.ElapsedGreen)
		eng.Command(a.id.TL, entity.Command{Kind: entity.CommandNextPhase})
		a.timer.Reset(phase)
		return entity.Decision{Kind: entity.DecisionGapTerminate}, state
	}

	if a.timer.Target == 0 || a.timer.ElapsedGreen >= a.timer.Target {
		duration := a.engine.Infer(float64(state.QueueLength), state.ArrivalRate)
		a.timer.Target = duration
		eng.Command(a.id.TL, entity.Command{Kind: entity.CommandSetDuration, Duration: duration})
		log.Debugf("[%s] queue=%d rate=%.3f -> green=%.1fs", a.id, state.QueueLength, state.ArrivalRate, duration)
		return entity.Decision{Kind: entity.DecisionExtend, Duration: duration}, state
	}
	return entity.Decision{Kind: entity.DecisionHold}, state
}
