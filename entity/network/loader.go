package network

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
)

// .net.xml文件结构（只解析走廊提取所需的元素）

type xmlLane struct {
	ID string `xml:"id,attr"`
}

type xmlEdge struct {
	ID       string    `xml:"id,attr"`
	Function string    `xml:"function,attr"`
	Lanes    []xmlLane `xml:"lane"`
}

type xmlPhase struct {
	Duration float64 `xml:"duration,attr"`
	State    string  `xml:"state,attr"`
}

type xmlTLLogic struct {
	ID     string     `xml:"id,attr"`
	Phases []xmlPhase `xml:"phase"`
}

type xmlConnection struct {
	From      string `xml:"from,attr"`
	To        string `xml:"to,attr"`
	FromLane  int    `xml:"fromLane,attr"`
	Dir       string `xml:"dir,attr"`
	TL        string `xml:"tl,attr"`
	LinkIndex *int   `xml:"linkIndex,attr"`
}

type xmlNet struct {
	Edges       []xmlEdge       `xml:"edge"`
	TLLogics    []xmlTLLogic    `xml:"tlLogic"`
	Connections []xmlConnection `xml:"connection"`
}

// Load 从.net.xml（或.net.xml.gz）文件加载路网
// 功能：解析路网文件并构建Network索引
// 参数：path-路网文件路径
// 返回：构建完成的Network，解析失败时返回错误（启动期致命）
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("network: open %s: %w", path, err)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("network: gunzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return Parse(r)
}

// Parse 从Reader解析.net.xml内容
// 算法说明：
// 1. 反序列化edge/tlLogic/connection三类元素
// 2. 相位state串逐字符转为灯色（G/g->绿，y/Y->黄，其余->红）
// 3. 无linkIndex的受控连接记为-1，后续被走廊提取忽略
func Parse(r io.Reader) (*Network, error) {
	var raw xmlNet
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("network: decode: %w", err)
	}
	edges := lo.Map(raw.Edges, func(e xmlEdge, _ int) Edge {
		return Edge{
			ID: e.ID,
			Lanes: lo.Map(e.Lanes, func(l xmlLane, _ int) string {
				return l.ID
			}),
		}
	})
	tls := lo.Map(raw.TLLogics, func(t xmlTLLogic, _ int) *TLLogic {
		return &TLLogic{
			ID: t.ID,
			Phases: lo.Map(t.Phases, func(p xmlPhase, _ int) Phase {
				return Phase{Duration: p.Duration, States: parseStates(p.State)}
			}),
		}
	})
	conns := lo.Map(raw.Connections, func(c xmlConnection, _ int) Connection {
		linkIndex := -1
		if c.LinkIndex != nil {
			linkIndex = *c.LinkIndex
		}
		return Connection{
			From:      c.From,
			To:        c.To,
			FromLane:  c.FromLane,
			Dir:       c.Dir,
			TL:        c.TL,
			LinkIndex: linkIndex,
		}
	})
	return New(edges, tls, conns), nil
}

// parseStates 把相位state串转为灯色列表
func parseStates(state string) []mapv2.LightState {
	states := make([]mapv2.LightState, len(state))
	for i, c := range state {
		switch c {
		case 'G', 'g':
			states[i] = mapv2.LightState_LIGHT_STATE_GREEN
		case 'y', 'Y':
			states[i] = mapv2.LightState_LIGHT_STATE_YELLOW
		default:
			states[i] = mapv2.LightState_LIGHT_STATE_RED
		}
	}
	return states
}
