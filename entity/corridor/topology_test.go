package corridor_test

import (
	"testing"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/corridor"
	"github.com/tsinghua-fib-lab/fuzzylts/entity/network"
)

// newTestNetwork 构建测试路网
//
//	E -> D -> A#1 -> A#2 -> B =J1=> C
//	              X -(左转)-> B
//	           :J1i -(内部)-> B
//
// J1相位0只放行B车道0的直行连接
func newTestNetwork(stopTL string) *network.Network {
	edges := []network.Edge{
		{ID: "A#1", Lanes: []string{"A#1_0"}},
		{ID: "A#2", Lanes: []string{"A#2_0"}},
		{ID: "B", Lanes: []string{"B_0", "B_1"}},
		{ID: "C", Lanes: []string{"C_0"}},
		{ID: "D", Lanes: []string{"D_0"}},
		{ID: "E", Lanes: []string{"E_0"}},
		{ID: "X", Lanes: []string{"X_0"}},
		{ID: ":J1i", Lanes: []string{":J1i_0"}},
	}
	green := mapv2.LightState_LIGHT_STATE_GREEN
	red := mapv2.LightState_LIGHT_STATE_RED
	yellow := mapv2.LightState_LIGHT_STATE_YELLOW
	tls := []*network.TLLogic{{
		ID: "J1",
		Phases: []network.Phase{
			{Duration: 30, States: []mapv2.LightState{green, red}},
			{Duration: 3, States: []mapv2.LightState{yellow, yellow}},
			{Duration: 30, States: []mapv2.LightState{red, green}},
		},
	}}
	conns := []network.Connection{
		{From: "B", To: "C", FromLane: 0, Dir: "s", TL: "J1", LinkIndex: 0},
		{From: "B", To: "C", FromLane: 1, Dir: "l", TL: "J1", LinkIndex: 1},
		{From: "A#2", To: "B", FromLane: 0, Dir: "s", TL: stopTL, LinkIndex: -1},
		{From: "A#1", To: "A#2", FromLane: 0, Dir: "s", LinkIndex: -1},
		{From: "D", To: "A#1", FromLane: 0, Dir: "s", LinkIndex: -1},
		{From: "E", To: "D", FromLane: 0, Dir: "s", LinkIndex: -1},
		{From: "X", To: "B", FromLane: 0, Dir: "l", LinkIndex: -1},
		{From: ":J1i", To: "B", FromLane: 0, Dir: "s", LinkIndex: -1},
	}
	return network.New(edges, tls, conns)
}

func TestBuildCorridor(t *testing.T) {
	net := newTestNetwork("")
	topo, err := corridor.Build(net, "J1", 0, corridor.Options{MaxDepth: 2})
	assert.Nil(t, err)
	assert.Equal(t, entity.ApproachID{TL: "J1", Phase: 0}, topo.ID)
	// B整条边的车道都计入；A#1/A#2换街一次(深度1)；D深度2；
	// E深度3越界；X为左转；:J1i为路口内部edge
	assert.Equal(t, []string{"A#1_0", "A#2_0", "B_0", "B_1", "D_0"}, topo.Lanes)
	assert.True(t, topo.Contains("B_1"))
	assert.False(t, topo.Contains("E_0"))
	assert.False(t, topo.Contains("X_0"))
	assert.False(t, topo.Contains(":J1i_0"))
}

func TestBuildSegmentsMergeSplitEdges(t *testing.T) {
	net := newTestNetwork("")
	topo, err := corridor.Build(net, "J1", 0, corridor.Options{MaxDepth: 2})
	assert.Nil(t, err)
	// OSM拆分的A#1/A#2合并为一个逻辑街道段
	assert.Equal(t, 3, len(topo.Segments))
	assert.Equal(t, "A", topo.Segments[0].Base)
	assert.Equal(t, []string{"A#1", "A#2"}, topo.Segments[0].Edges)
	assert.Equal(t, "B", topo.Segments[1].Base)
	assert.Equal(t, "D", topo.Segments[2].Base)
}

func TestBuildMaxDepthZero(t *testing.T) {
	net := newTestNetwork("")
	topo, err := corridor.Build(net, "J1", 0, corridor.Options{MaxDepth: 0})
	assert.Nil(t, err)
	// 深度0只保留直接驶入的edge
	assert.Equal(t, []string{"B_0", "B_1"}, topo.Lanes)
}

func TestBuildStopAtTL(t *testing.T) {
	// A#2->B连接由相邻信号灯J2控制，截断后走廊不越过该路口
	net := newTestNetwork("J2")
	topo, err := corridor.Build(net, "J1", 0, corridor.Options{MaxDepth: 2, StopAtTL: true})
	assert.Nil(t, err)
	assert.Equal(t, []string{"B_0", "B_1"}, topo.Lanes)

	// 不截断时照常上溯
	topo, err = corridor.Build(net, "J1", 0, corridor.Options{MaxDepth: 2})
	assert.Nil(t, err)
	assert.True(t, topo.Contains("A#2_0"))
}

func TestBuildErrors(t *testing.T) {
	net := newTestNetwork("")
	_, err := corridor.Build(net, "nope", 0, corridor.Options{MaxDepth: 2})
	assert.NotNil(t, err)
	_, err = corridor.Build(net, "J1", 99, corridor.Options{MaxDepth: 2})
	assert.NotNil(t, err)

	// 绿灯连接全部从内部edge驶入时无可解析车道
	green := mapv2.LightState_LIGHT_STATE_GREEN
	bad := network.New(
		[]network.Edge{{ID: ":J2i", Lanes: []string{":J2i_0"}}, {ID: "C", Lanes: []string{"C_0"}}},
		[]*network.TLLogic{{ID: "J2", Phases: []network.Phase{{Duration: 30, States: []mapv2.LightState{green}}}}},
		[]network.Connection{{From: ":J2i", To: "C", FromLane: 0, Dir: "s", TL: "J2", LinkIndex: 0}},
	)
	_, err = corridor.Build(bad, "J2", 0, corridor.Options{MaxDepth: 2})
	assert.ErrorIs(t, err, corridor.ErrNoUpstreamLanes)
}

func TestBuildAll(t *testing.T) {
	net := newTestNetwork("")
	topologies, err := corridor.BuildAll(net, nil, corridor.Options{MaxDepth: 2})
	assert.Nil(t, err)
	// 相位0和2有绿灯连接，黄灯相位1不受控
	assert.Equal(t, 2, len(topologies))
	assert.Contains(t, topologies, entity.ApproachID{TL: "J1", Phase: 0})
	assert.Contains(t, topologies, entity.ApproachID{TL: "J1", Phase: 2})
	assert.NotContains(t, topologies, entity.ApproachID{TL: "J1", Phase: 1})

	_, err = corridor.BuildAll(net, []string{"nope"}, corridor.Options{MaxDepth: 2})
	assert.NotNil(t, err)
}
