// Package trace 合成轨迹引擎
// 功能：在没有真实仿真引擎时离线运行控制核心，按每车道伯努利到达、
// 绿灯放行的简化动力学合成检测器观测，并响应相位控制指令
package trace

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/network"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/randengine"
)

var log = logrus.WithField("module", "trace")

// tlRuntime 单个信号灯的运行时状态
type tlRuntime struct {
	logic     *network.TLLogic
	phase     int     // 当前相位下标
	remaining float64 // 当前相位剩余时间（秒）
	pending   []entity.Command
}

// laneState 单车道运行时状态
type laneState struct {
	count    int32   // 车道上的车辆数
	arrivals int32   // 本步新到达的车辆数
	arriveP  float64 // 每步到达概率
	tl       string  // 控制该车道驶出的信号灯ID，无信控时为空
	green    bool    // 本步该车道是否放行
}

// Engine 合成轨迹引擎
// 功能：实现控制核心所需的观测与指令接口，用于离线运行与回归评估
// 算法说明：
// 1. 每步每车道以配置概率独立到达一辆车
// 2. 受控车道仅在其连接为绿灯时放行，每步以1/persist概率驶离一辆车；
//    无信控车道始终可放行
// 3. 控制指令在下一步开始时生效；相位自然到期时自行切换（对控制器
//    表现为引擎侧强制切相）
// 说明：相同种子与指令序列产生相同轨迹；Observe/Phase/Command可并发调用
type Engine struct {
	net *network.Network
	rnd *randengine.Engine

	departP   float64
	tls       map[string]*tlRuntime
	tlOrder   []string
	lanes     map[string]*laneState
	laneOrder []string

	mtx sync.Mutex
}

// New 创建合成轨迹引擎
// 参数：net-静态路网，cfg-引擎配置，tls-受控信号灯ID列表（空则取全部）
func New(net *network.Network, cfg config.Engine, tls []string) *Engine {
	if len(tls) == 0 {
		tls = net.TLs()
	}
	e := &Engine{
		net:     net,
		rnd:     randengine.New(cfg.Seed),
		departP: 1 / cfg.Persist,
		tls:     make(map[string]*tlRuntime),
		lanes:   make(map[string]*laneState),
	}
	for _, id := range tls {
		logic, ok := net.TL(id)
		if !ok || len(logic.Phases) == 0 {
			log.Warnf("traffic light %s not in network, skipped", id)
			continue
		}
		e.tls[id] = &tlRuntime{
			logic:     logic,
			remaining: logic.Phases[0].Duration,
		}
		e.tlOrder = append(e.tlOrder, id)
	}
	sort.Strings(e.tlOrder)
	for _, lane := range net.AllLanes() {
		p := cfg.P
		if override, ok := cfg.LaneP[lane]; ok {
			p = override
		}
		e.lanes[lane] = &laneState{arriveP: p}
	}
	e.laneOrder = net.AllLanes()
	// 受控车道与其信号灯的对应关系
	for _, id := range e.tlOrder {
		for _, link := range net.Links(id) {
			lanes := net.Lanes(link.FromEdge)
			if link.FromLane < 0 || link.FromLane >= len(lanes) {
				continue
			}
			if ls, ok := e.lanes[lanes[link.FromLane]]; ok {
				ls.tl = id
			}
		}
	}
	return e
}

// Step 推进一个仿真步
// 功能：生效缓冲指令、推进相位计时并合成本步车道观测
// 参数：dt-步长（秒）
func (e *Engine) Step(dt float64) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	for _, id := range e.tlOrder {
		rt := e.tls[id]
		for _, cmd := range rt.pending {
			e.apply(id, rt, cmd)
		}
		rt.pending = rt.pending[:0]
		rt.remaining -= dt
		if rt.remaining <= 0 {
			e.advance(id, rt)
		}
	}
	e.refreshGreen()
	for _, lane := range e.laneOrder {
		ls := e.lanes[lane]
		ls.arrivals = 0
		if e.rnd.PTrue(ls.arriveP) {
			ls.arrivals = 1
			ls.count++
		}
		if ls.count > 0 && (ls.tl == "" || ls.green) && e.rnd.PTrue(e.departP) {
			ls.count--
		}
	}
}

func (e *Engine) apply(id string, rt *tlRuntime, cmd entity.Command) {
	switch cmd.Kind {
	case entity.CommandNextPhase:
		e.advance(id, rt)
	case entity.CommandSetDuration:
		rt.remaining = cmd.Duration
	}
}

func (e *Engine) advance(id string, rt *tlRuntime) {
	rt.phase = (rt.phase + 1) % len(rt.logic.Phases)
	rt.remaining = rt.logic.Phases[rt.phase].Duration
	log.Debugf("[%s] phase -> %d (%.1fs)", id, rt.phase, rt.remaining)
}

// refreshGreen 按各信号灯当前相位更新受控车道的放行标记
func (e *Engine) refreshGreen() {
	for _, ls := range e.lanes {
		ls.green = false
	}
	for _, id := range e.tlOrder {
		rt := e.tls[id]
		greens := rt.logic.GreenLinks(rt.phase)
		for _, link := range e.net.Links(id) {
			if _, ok := greens[link.Index]; !ok {
				continue
			}
			lanes := e.net.Lanes(link.FromEdge)
			if link.FromLane < 0 || link.FromLane >= len(lanes) {
				continue
			}
			if ls, ok := e.lanes[lanes[link.FromLane]]; ok {
				ls.green = true
			}
		}
	}
}

// Observe 返回全部车道的本步观测
func (e *Engine) Observe(_ string) map[string]entity.DetectorSnapshot {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	res := make(map[string]entity.DetectorSnapshot, len(e.lanes))
	for lane, ls := range e.lanes {
		res[lane] = entity.DetectorSnapshot{Count: ls.count, Arrivals: ls.arrivals}
	}
	return res
}

// Phase 返回指定信号灯当前相位下标与相位总数
func (e *Engine) Phase(tl string) (int, int) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	rt, ok := e.tls[tl]
	if !ok {
		return 0, 0
	}
	return rt.phase, len(rt.logic.Phases)
}

// Command 缓冲一条相位控制指令，下一步开始时生效
func (e *Engine) Command(tl string, command entity.Command) {
	if command.Kind == entity.CommandNoop {
		return
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if rt, ok := e.tls[tl]; ok {
		rt.pending = append(rt.pending, command)
	}
}
