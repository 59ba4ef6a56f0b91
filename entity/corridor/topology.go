// 走廊聚合器：从静态路网中提取喂给某个信控相位的上游车道集合，
// 并把单步原始观测归约为进口道交通状态
package corridor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/network"
)

var log = logrus.WithField("module", "corridor")

var (
	// 进口道在链路视界内没有可解析的上游车道（启动期致命）
	ErrNoUpstreamLanes = errors.New("corridor: no resolvable upstream lanes")
)

// Options 走廊提取参数
type Options struct {
	MaxDepth int  // 上溯深度，按街道基名变化计数（0表示只取直接驶入的街道）
	StopAtTL bool // 是否在其他信号灯控制的连接处截断
}

// Segment 一条逻辑街道段
// 说明：基名相同的连续OSM拆分edge合并为一段，排队统计不会重复计数
type Segment struct {
	Base  string   // 街道基名
	Edges []string // 属于该段的edge ID（排序后）
}

// ApproachTopology 进口道走廊拓扑
// 功能：保存喂给一个信控相位的全部上游车道与逻辑街道段
// 说明：启动时构建一次，此后只读，可跨线程共享
type ApproachTopology struct {
	ID       entity.ApproachID
	Lanes    []string  // 上游车道ID（排序后，去重）
	Segments []Segment // 合并后的逻辑街道段

	laneSet map[string]struct{}
}

// Contains 判断车道是否属于该走廊
func (t *ApproachTopology) Contains(laneID string) bool {
	_, ok := t.laneSet[laneID]
	return ok
}

// Build 为指定信号灯相位构建走廊拓扑
// 功能：从该相位的绿灯连接出发反向BFS，收集上游车道
// 参数：net-静态路网，tl-信号灯ID，phase-相位下标，opts-提取参数
// 返回：走廊拓扑；相位无绿灯连接或无上游车道时返回ErrNoUpstreamLanes
// 算法说明：
// 1. 取该相位state串中为绿的受控连接，起点为其驶入edge
// 2. 只沿直行连接（dir="s"）反向扩展
// 3. 深度仅在上游edge基名与当前edge不同（换街）时加一，超过MaxDepth停止
// 4. 路口内部edge（:前缀）不纳入结果
// 5. 结果按edge基名合并为逻辑街道段，车道排序保证确定性
func Build(net *network.Network, tl string, phase int, opts Options) (*ApproachTopology, error) {
	logic, ok := net.TL(tl)
	if !ok {
		return nil, fmt.Errorf("corridor: unknown traffic light %s", tl)
	}
	if phase < 0 || phase >= len(logic.Phases) {
		return nil, fmt.Errorf("corridor: traffic light %s has no phase %d", tl, phase)
	}
	green := logic.GreenLinks(phase)
	visited := make(map[string]struct{})
	for _, link := range net.Links(tl) {
		if link.Index < 0 || link.Index >= len(logic.Phases[phase].States) {
			// state串与连接不匹配，跳过坏数据
			continue
		}
		if _, ok := green[link.Index]; !ok {
			continue
		}
		collectUpstream(net, link.FromEdge, tl, opts, visited)
	}

	id := entity.ApproachID{TL: tl, Phase: phase}
	topo := &ApproachTopology{ID: id, laneSet: make(map[string]struct{})}
	byBase := make(map[string][]string)
	for edge := range visited {
		if network.IsInternal(edge) {
			continue
		}
		byBase[network.EdgeBase(edge)] = append(byBase[network.EdgeBase(edge)], edge)
		for _, lane := range net.Lanes(edge) {
			topo.laneSet[lane] = struct{}{}
		}
	}
	if len(topo.laneSet) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUpstreamLanes, id)
	}
	topo.Lanes = lo.Keys(topo.laneSet)
	sort.Strings(topo.Lanes)
	for base, edges := range byBase {
		sort.Strings(edges)
		topo.Segments = append(topo.Segments, Segment{Base: base, Edges: edges})
	}
	sort.Slice(topo.Segments, func(i, j int) bool { return topo.Segments[i].Base < topo.Segments[j].Base })
	return topo, nil
}

// collectUpstream 反向BFS收集上游edge，深度按街道基名变化计数
func collectUpstream(net *network.Network, start, currentTL string, opts Options, visited map[string]struct{}) {
	type queueItem struct {
		edge  string
		depth int
		base  string
	}
	queue := []queueItem{{edge: start, depth: 0, base: network.EdgeBase(start)}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if _, ok := visited[item.edge]; ok {
			continue
		}
		visited[item.edge] = struct{}{}
		if item.depth >= opts.MaxDepth {
			continue
		}
		for _, up := range net.Upstream(item.edge) {
			// 只有直行连接参与走廊
			if up.Dir != network.DirStraight {
				continue
			}
			// 可选：在其他信号灯处截断，避免走廊越过相邻路口
			if opts.StopAtTL && up.TL != "" && up.TL != currentTL {
				continue
			}
			upBase := network.EdgeBase(up.FromEdge)
			nextDepth := item.depth
			if upBase != item.base {
				nextDepth++
			}
			if nextDepth <= opts.MaxDepth {
				if _, ok := visited[up.FromEdge]; !ok {
					queue = append(queue, queueItem{edge: up.FromEdge, depth: nextDepth, base: upBase})
				}
			}
		}
	}
}

// BuildAll 为路网中全部（或指定的）信号灯构建走廊拓扑
// 功能：遍历每个信号灯程序的每个含绿灯连接的相位并构建拓扑
// 参数：net-静态路网，tls-受控信号灯ID列表（为空则取路网全部），opts-提取参数
// 返回：进口道ID->拓扑映射；任一进口道无法解析上游车道时整体失败
func BuildAll(net *network.Network, tls []string, opts Options) (map[entity.ApproachID]*ApproachTopology, error) {
	if len(tls) == 0 {
		tls = net.TLs()
	}
	res := make(map[entity.ApproachID]*ApproachTopology)
	for _, tl := range tls {
		logic, ok := net.TL(tl)
		if !ok {
			return nil, fmt.Errorf("corridor: unknown traffic light %s", tl)
		}
		for phase := range logic.Phases {
			if len(logic.GreenLinks(phase)) == 0 {
				// 黄灯/全红相位不受控
				continue
			}
			topo, err := Build(net, tl, phase, opts)
			if err != nil {
				return nil, err
			}
			res[topo.ID] = topo
		}
	}
	return res, nil
}
