package entity

import (
	"fmt"
)

// ApproachID 信控进口道标识，由信号灯ID与受控相位下标组成
// 说明：一个信号灯程序中的每个绿灯相位对应一个独立受控的进口道
type ApproachID struct {
	TL    string // 信号灯ID
	Phase int    // 受控相位下标
}

func (id ApproachID) String() string {
	return fmt.Sprintf("%s/%d", id.TL, id.Phase)
}

// DetectorSnapshot 单车道单步检测器观测值
// 说明：由外部仿真引擎每步提供，不跨步保留
type DetectorSnapshot struct {
	Count    int32 // 当前车道上的车辆数
	Arrivals int32 // 自上一步以来新到达的车辆数
}

// TrafficState 进口道聚合交通状态
// 功能：走廊聚合器对单步原始观测归约后的结果，作为模糊推理的输入
type TrafficState struct {
	QueueLength int32   // 排队车辆数（走廊内求和）
	ArrivalRate float64 // 到达率（veh/s）
}

// Empty 判断是否为空观测（无排队且无到达）
func (s TrafficState) Empty() bool {
	return s.QueueLength == 0 && s.ArrivalRate == 0
}

// DecisionKind 控制器单步决策类型
type DecisionKind int32

const (
	DecisionHold         DecisionKind = iota // 维持当前相位，不下发指令
	DecisionExtend                           // 设定/延长绿灯时长
	DecisionGapTerminate                     // 间隙切断，立即进入下一相位
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionHold:
		return "hold"
	case DecisionExtend:
		return "extend"
	case DecisionGapTerminate:
		return "gap_terminate"
	default:
		return fmt.Sprintf("unknown(%d)", int32(k))
	}
}

// Decision 控制器单步评估输出
// 说明：由编排器立即消费并转换为引擎指令，不持久化
type Decision struct {
	Kind     DecisionKind
	Duration float64 // Kind为Extend时的绿灯时长（秒），其余为0
}

// CommandKind 下发给外部仿真引擎的指令类型
type CommandKind int32

const (
	CommandNoop        CommandKind = iota // 本步不干预
	CommandNextPhase                      // 立即切换到下一相位
	CommandSetDuration                    // 设定当前相位剩余时长
)

// Command 下发给外部仿真引擎的相位控制指令
type Command struct {
	Kind     CommandKind
	Duration float64 // Kind为SetDuration时的时长（秒）
}

// IEngine 外部仿真引擎能力接口（依赖倒置）
// 说明：核心仅通过该窄接口观测与指挥外部引擎，便于用合成轨迹测试；
// 引擎侧强制的相位切换通过Phase()的返回值变化被编排器感知
type IEngine interface {
	// 返回指定信号灯当前步的车道观测（车道ID->观测值）
	Observe(tl string) map[string]DetectorSnapshot
	// 返回指定信号灯当前相位下标与程序相位总数
	Phase(tl string) (step int, count int)
	// 下发相位控制指令
	Command(tl string, command Command)
}

// DecisionRecord 单条决策记录，供外部聚合
type DecisionRecord struct {
	Step     int32        // 仿真步数
	Time     float64      // 仿真时间（秒）
	Approach ApproachID   // 进口道
	Decision Decision     // 决策
	State    TrafficState // 决策依据的交通状态
}

// IRecorder 决策记录输出接口
type IRecorder interface {
	Record(rec *DecisionRecord)
	Close() error
}
