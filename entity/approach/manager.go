package approach

import (
	"fmt"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/corridor"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/network"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/fuzzy"
)

// Manager 进口道管理器
// 功能：持有全部受控进口道（按进口道ID索引的arena），驱动单步并行求值，
// 并把决策记录交给输出层
// 说明：进口道之间无共享可变状态，可并行求值；单个进口道内部严格按步序
type Manager struct {
	ctx entity.ITaskContext

	data       map[entity.ApproachID]*Approach
	approaches []*Approach // 固定顺序，保证输出确定性

	recorder entity.IRecorder
}

// NewManager 创建进口道管理器实例
// 参数：ctx-任务上下文，recorder-决策记录输出
func NewManager(ctx entity.ITaskContext, recorder entity.IRecorder) *Manager {
	return &Manager{
		ctx:      ctx,
		data:     make(map[entity.ApproachID]*Approach),
		recorder: recorder,
	}
}

// Init 初始化所有进口道
// 功能：为每个受控信号灯的每个绿灯相位构建走廊拓扑并创建进口道
// 参数：net-静态路网，engine-共享模糊推理引擎
// 返回：任一进口道的走廊无法解析时返回错误（启动期致命）
func (m *Manager) Init(net *network.Network, engine *fuzzy.Engine) error {
	cfg := m.ctx.RuntimeConfig().All
	opts := corridor.Options{
		MaxDepth: cfg.Network.MaxDepth,
		StopAtTL: cfg.Network.StopAtTL,
	}
	topologies, err := corridor.BuildAll(net, cfg.Network.TLs, opts)
	if err != nil {
		return err
	}
	m.approaches = lo.MapToSlice(topologies, func(_ entity.ApproachID, topo *corridor.ApproachTopology) *Approach {
		return New(m.ctx, topo, engine, cfg.GapOut)
	})
	sort.Slice(m.approaches, func(i, j int) bool {
		a, b := m.approaches[i].id, m.approaches[j].id
		if a.TL != b.TL {
			return a.TL < b.TL
		}
		return a.Phase < b.Phase
	})
	m.data = lo.SliceToMap(m.approaches, func(a *Approach) (entity.ApproachID, *Approach) {
		return a.id, a
	})
	for _, a := range m.approaches {
		log.Infof("approach %s: %d upstream lanes in %d segments", a.id, len(a.topology.Lanes), len(a.topology.Segments))
	}
	return nil
}

// Get 根据进口道ID查找进口道，不存在则panic
func (m *Manager) Get(id entity.ApproachID) *Approach {
	a, ok := m.data[id]
	if !ok {
		log.Panicf("approach %s not found", id)
	}
	return a
}

// GetOrError 根据进口道ID查找进口道，不存在则返回error
func (m *Manager) GetOrError(id entity.ApproachID) (*Approach, error) {
	a, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("approach %s not found", id)
	}
	return a, nil
}

// Approaches 返回全部进口道（固定顺序）
func (m *Manager) Approaches() []*Approach {
	return m.approaches
}

// Update 更新阶段，对全部进口道执行一步决策
// 功能：并行求值各进口道（各自独立），随后串行写出决策记录
// 参数：eng-外部仿真引擎（其观测与指令接口需支持并发调用）
func (m *Manager) Update(eng entity.IEngine) {
	clk := m.ctx.Clock()
	records := parallel.GoMap(m.approaches, func(a *Approach) *entity.DecisionRecord {
		decision, state := a.Step(eng)
		return &entity.DecisionRecord{
			Step:     clk.Step,
			Time:     clk.T,
			Approach: a.id,
			Decision: decision,
			State:    state,
		}
	})
	for _, rec := range records {
		m.recorder.Record(rec)
	}
}
