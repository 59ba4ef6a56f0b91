// 静态路网描述，提供走廊提取所需的车道邻接关系与信控程序
// 路网在启动时构建一次，此后只读
package network

import (
	"sort"
	"strings"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "network")

// 直行连接的dir属性值，走廊上溯只沿直行连接进行
const DirStraight = "s"

// Link 信号灯受控连接
type Link struct {
	Index    int    // 相位state串中的下标
	FromEdge string // 驶入edge
	FromLane int    // 驶入车道下标
	ToEdge   string // 驶出edge
}

// UpstreamItem 反向邻接项，表示child edge的一个上游连接
type UpstreamItem struct {
	FromEdge string // 上游edge
	Dir      string // 连接方向（s/l/r/t）
	TL       string // 控制该连接的信号灯ID，无信控时为空
}

// Phase 信控程序中的一个相位
type Phase struct {
	Duration float64            // 相位时长（秒）
	States   []mapv2.LightState // 按link index排列的灯色
}

// TLLogic 单个信号灯的信控程序
type TLLogic struct {
	ID     string
	Phases []Phase
}

// GreenLinks 返回指定相位下为绿灯的受控连接下标集合
func (t *TLLogic) GreenLinks(phase int) map[int]struct{} {
	res := make(map[int]struct{})
	if phase < 0 || phase >= len(t.Phases) {
		return res
	}
	for i, s := range t.Phases[phase].States {
		if s == mapv2.LightState_LIGHT_STATE_GREEN {
			res[i] = struct{}{}
		}
	}
	return res
}

// Edge 路网中的一条边及其车道
type Edge struct {
	ID    string
	Lanes []string // 车道ID列表，顺序与文件一致
}

// Connection 路网中的一条连接
type Connection struct {
	From      string // 驶入edge
	To        string // 驶出edge
	FromLane  int    // 驶入车道下标
	Dir       string // 方向（s直行/l左转/r右转/t掉头）
	TL        string // 信号灯ID，无信控时为空
	LinkIndex int    // 信号灯state串中的下标，无信控时为-1
}

// Network 静态路网
// 功能：保存edge、车道、连接与信控程序，并建立走廊提取所需的索引
// 说明：构建后只读，可被所有进口道共享
type Network struct {
	edgeLanes  map[string][]string       // edge ID -> 车道ID列表
	tlLinks    map[string][]Link         // 信号灯ID -> 受控连接（按link index排序）
	upstreamOf map[string][]UpstreamItem // edge ID -> 上游连接集合
	tls        map[string]*TLLogic       // 信号灯ID -> 信控程序
}

// New 根据解析后的路网元素构建Network
// 功能：建立受控连接表与反向邻接表
// 参数：edges-边列表，tls-信控程序列表，conns-连接列表
// 返回：构建完成的Network实例
// 算法说明：
// 1. 建立edge->车道映射
// 2. 遍历连接，写入反向邻接表；有信控的连接同时记入受控连接表
// 3. 受控连接按link index排序，保证相位state串的对应关系稳定
func New(edges []Edge, tls []*TLLogic, conns []Connection) *Network {
	n := &Network{
		edgeLanes:  make(map[string][]string),
		tlLinks:    make(map[string][]Link),
		upstreamOf: make(map[string][]UpstreamItem),
		tls:        make(map[string]*TLLogic),
	}
	for _, e := range edges {
		n.edgeLanes[e.ID] = e.Lanes
	}
	for _, t := range tls {
		n.tls[t.ID] = t
	}
	for _, c := range conns {
		if c.From == "" || c.To == "" {
			continue
		}
		item := UpstreamItem{FromEdge: c.From, Dir: c.Dir, TL: c.TL}
		if !lo.Contains(n.upstreamOf[c.To], item) {
			n.upstreamOf[c.To] = append(n.upstreamOf[c.To], item)
		}
		if c.TL != "" {
			n.tlLinks[c.TL] = append(n.tlLinks[c.TL], Link{
				Index:    c.LinkIndex,
				FromEdge: c.From,
				FromLane: c.FromLane,
				ToEdge:   c.To,
			})
		}
	}
	for id := range n.tlLinks {
		links := n.tlLinks[id]
		sort.Slice(links, func(i, j int) bool { return links[i].Index < links[j].Index })
		n.tlLinks[id] = links
	}
	for id := range n.tls {
		if len(n.tlLinks[id]) == 0 {
			log.Warnf("traffic light %s has no controlled connections", id)
		}
	}
	return n
}

// TLs 返回全部信号灯ID（排序后）
func (n *Network) TLs() []string {
	ids := lo.Keys(n.tls)
	sort.Strings(ids)
	return ids
}

// TL 根据ID查找信控程序
func (n *Network) TL(id string) (*TLLogic, bool) {
	t, ok := n.tls[id]
	return t, ok
}

// Links 返回信号灯的受控连接（按link index排序）
func (n *Network) Links(tl string) []Link {
	return n.tlLinks[tl]
}

// Lanes 返回edge的车道ID列表
func (n *Network) Lanes(edge string) []string {
	return n.edgeLanes[edge]
}

// AllLanes 返回路网中全部车道ID（排序后）
func (n *Network) AllLanes() []string {
	lanes := lo.Flatten(lo.Values(n.edgeLanes))
	sort.Strings(lanes)
	return lo.Uniq(lanes)
}

// Upstream 返回edge的上游连接集合
func (n *Network) Upstream(edge string) []UpstreamItem {
	return n.upstreamOf[edge]
}

// EdgeBase 返回edge所属街道的基名（首个#之前的子串）
// 说明：OSM导出的路网常把一条街拆成EDGE#1、EDGE#2等多段，
// 基名相同的edge视作同一条逻辑街道
func EdgeBase(edgeID string) string {
	if i := strings.IndexByte(edgeID, '#'); i != -1 {
		return edgeID[:i]
	}
	return edgeID
}

// IsInternal 判断edge是否为路口内部edge（以:开头）
func IsInternal(edgeID string) bool {
	return strings.HasPrefix(edgeID, ":")
}
